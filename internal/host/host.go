// Package host runs the active visualization: it owns the single plugin
// instance, drives it once per frame with a fresh spectrum snapshot, and
// swaps plugins without ever letting two hold the container at once.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/log"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

// DefaultMaxFailures is how many Update failures in a row deactivate a
// plugin.
const DefaultMaxFailures = 3

// State is the host lifecycle state.
type State uint8

const (
	Idle State = iota
	Initializing
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Source supplies one snapshot per frame. *analyzer.Analyzer implements it.
type Source interface {
	Read() analyzer.Snapshot
}

// Reporter receives every error the host contains. It is never called with
// the host's lock held.
type Reporter func(error)

// Option configures a Host.
type Option func(*Host)

// WithReporter routes contained errors to r instead of the log.
func WithReporter(r Reporter) Option {
	return func(h *Host) {
		if r != nil {
			h.report = r
		}
	}
}

// WithMaxFailures sets how many consecutive Update failures deactivate a
// plugin. Zero or less never deactivates.
func WithMaxFailures(n int) Option {
	return func(h *Host) { h.maxFailures = n }
}

// Host owns the active plugin.
type Host struct {
	container *render.Container
	source    Source

	report      Reporter
	maxFailures int

	mu       sync.Mutex
	state    State
	name     string
	active   visual.Plugin
	failures int
	frames   uint64
	closed   bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New returns an Idle host drawing into container and reading from source.
func New(container *render.Container, source Source, opts ...Option) *Host {
	h := &Host{
		container:   container,
		source:      source,
		report:      logReport,
		maxFailures: DefaultMaxFailures,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func logReport(err error) {
	var rt *PluginRuntimeError
	if errors.As(err, &rt) {
		log.Warnf("host: %v", err)
		return
	}
	log.Errorf("host: %v", err)
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Active returns the name of the running plugin, or "".
func (h *Host) Active() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// Frames counts Update calls made since the host was created.
func (h *Host) Frames() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Activate replaces the active plugin with one built by f. The previous
// plugin is disposed before the new one is constructed. A construction or
// initialization failure leaves the host Idle and is returned as a
// *PluginInitError after the partial plugin has been disposed.
func (h *Host) Activate(name string, f visual.Factory) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	reports := h.disposeLocked()
	h.state = Initializing

	var p visual.Plugin
	err := guard(func() error {
		if f == nil {
			return ErrNilFactory
		}
		p = f(h.container)
		if p == nil {
			return fmt.Errorf("factory returned no plugin")
		}
		return p.Initialize()
	})
	if err != nil {
		if p != nil {
			if derr := guard(func() error { p.Dispose(); return nil }); derr != nil {
				reports = append(reports, fmt.Errorf("disposing %q after failed init: %w", name, derr))
			}
		}
		h.reclaimLocked(name)
		h.state = Idle
		ierr := &PluginInitError{Name: name, Err: err}
		h.mu.Unlock()
		h.deliver(append(reports, ierr))
		return ierr
	}

	h.active = p
	h.name = name
	h.failures = 0
	h.state = Running
	h.mu.Unlock()

	h.deliver(reports)
	log.Infof("host: activated %q", name)
	select {
	case h.wake <- struct{}{}:
	default:
	}
	return nil
}

// Frame runs one iteration: read the snapshot once and hand it to the
// active plugin. It reports whether a plugin was running. Plugin failures
// are reported, never returned.
func (h *Host) Frame() bool {
	h.mu.Lock()
	if h.state != Running {
		h.mu.Unlock()
		return false
	}
	snap := h.source.Read()
	p, name := h.active, h.name
	err := guard(func() error { return p.Update(snap) })
	h.frames++

	var reports []error
	if err == nil {
		h.failures = 0
	} else {
		h.failures++
		reports = append(reports, &PluginRuntimeError{Name: name, Frame: h.frames, Err: err})
		if h.maxFailures > 0 && h.failures >= h.maxFailures {
			reports = append(reports, h.disposeLocked()...)
			reports = append(reports, fmt.Errorf("%w: %q failed %d frames in a row", ErrPluginDeactivated, name, h.maxFailures))
		}
	}
	h.mu.Unlock()

	h.deliver(reports)
	return true
}

// Run drives Frame from clock until ctx is done or Close is called. While
// Idle it waits for the next activation instead of consuming ticks.
func (h *Host) Run(ctx context.Context, clock FrameClock) error {
	defer clock.Stop()
	for {
		if h.State() == Running {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-h.done:
				return nil
			case <-clock.Ticks():
				h.Frame()
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return nil
		case <-h.wake:
		}
	}
}

// Resize records the new container size and lets the active plugin adapt.
// A failure is reported and returned as *ResizeError; the next resize tries
// again.
func (h *Host) Resize(cols, rows int) error {
	h.container.SetSize(cols, rows)

	h.mu.Lock()
	r, ok := h.active.(visual.Resizer)
	if !ok || h.state != Running {
		h.mu.Unlock()
		return nil
	}
	name := h.name
	err := guard(func() error { return r.Resize(cols, rows) })
	h.mu.Unlock()

	if err == nil {
		return nil
	}
	rerr := &ResizeError{Name: name, Cols: cols, Rows: rows, Err: err}
	h.deliver([]error{rerr})
	return rerr
}

// Stop disposes the active plugin. The host stays usable.
func (h *Host) Stop() {
	h.mu.Lock()
	reports := h.disposeLocked()
	h.mu.Unlock()
	h.deliver(reports)
}

// Close stops the host and ends Run. Later activations fail with ErrClosed.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	reports := h.disposeLocked()
	h.mu.Unlock()
	h.deliver(reports)
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Host) disposeLocked() []error {
	p, name := h.active, h.name
	h.active = nil
	h.name = ""
	h.failures = 0
	h.state = Idle
	if p == nil {
		return nil
	}
	err := guard(func() error { p.Dispose(); return nil })
	h.reclaimLocked(name)
	if err != nil {
		return []error{fmt.Errorf("disposing %q: %w", name, err)}
	}
	log.Debugf("host: disposed %q", name)
	return nil
}

// reclaimLocked takes the container back from a plugin that left its
// surface attached, so the next plugin can attach its own.
func (h *Host) reclaimLocked(name string) {
	if h.container != nil && h.container.Reset() {
		log.Warnf("host: %q left its surface attached; reclaimed the container", name)
	}
}

func (h *Host) deliver(errs []error) {
	for _, err := range errs {
		h.report(err)
	}
}
