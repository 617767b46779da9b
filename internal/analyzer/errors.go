package analyzer

import "errors"

var (
	ErrNoSource       = errors.New("no signal source")
	ErrForeignContext = errors.New("signal source belongs to a different audio context")
)

// BindingError reports why Bind could not attach to a source. The analyzer
// is unbound afterwards and reads return zeros.
type BindingError struct {
	Err error
}

func (e *BindingError) Error() string { return "binding analyzer: " + e.Err.Error() }
func (e *BindingError) Unwrap() error { return e.Err }
