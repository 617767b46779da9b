package host

import (
	"errors"
	"fmt"
)

var (
	ErrClosed            = errors.New("host closed")
	ErrNilFactory        = errors.New("nil plugin factory")
	ErrPanic             = errors.New("plugin panicked")
	ErrPluginDeactivated = errors.New("plugin deactivated")
)

// PluginInitError reports a plugin that could not be constructed or
// initialized. The host is Idle afterwards.
type PluginInitError struct {
	Name string
	Err  error
}

func (e *PluginInitError) Error() string {
	return fmt.Sprintf("initializing %q: %v", e.Name, e.Err)
}

func (e *PluginInitError) Unwrap() error { return e.Err }

// PluginRuntimeError reports a failed Update. The frame is skipped; the
// plugin stays active until it fails too many times in a row.
type PluginRuntimeError struct {
	Name  string
	Frame uint64
	Err   error
}

func (e *PluginRuntimeError) Error() string {
	return fmt.Sprintf("updating %q (frame %d): %v", e.Name, e.Frame, e.Err)
}

func (e *PluginRuntimeError) Unwrap() error { return e.Err }

// ResizeError reports a plugin that could not adapt to a new container
// size. It is retried on the next resize.
type ResizeError struct {
	Name string
	Cols int
	Rows int
	Err  error
}

func (e *ResizeError) Error() string {
	return fmt.Sprintf("resizing %q to %dx%d: %v", e.Name, e.Cols, e.Rows, e.Err)
}

func (e *ResizeError) Unwrap() error { return e.Err }

// guard runs fn, converting a panic into an error wrapping ErrPanic.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
