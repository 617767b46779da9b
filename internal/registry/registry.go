// Package registry maps scene names to plugin factories. A Registry is
// built once at startup and never changes afterwards.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/olivier-w/climpviz/internal/visual"
)

var (
	ErrEmpty     = errors.New("registry has no entries")
	ErrEmptyName = errors.New("entry has an empty name")
	ErrDuplicate = errors.New("duplicate entry name")
	ErrNoFactory = errors.New("entry has no factory")
)

// Entry binds a name to a factory.
type Entry struct {
	Name    string
	Factory visual.Factory
}

// Registry is an immutable, ordered set of entries. The first entry is the
// default.
type Registry struct {
	names []string
	byKey map[string]visual.Factory
}

// New validates entries and freezes them into a Registry.
func New(entries ...Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	r := &Registry{
		names: make([]string, 0, len(entries)),
		byKey: make(map[string]visual.Factory, len(entries)),
	}
	for _, e := range entries {
		switch {
		case strings.TrimSpace(e.Name) == "":
			return nil, ErrEmptyName
		case e.Factory == nil:
			return nil, fmt.Errorf("%w: %q", ErrNoFactory, e.Name)
		}
		key := strings.ToLower(e.Name)
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, e.Name)
		}
		r.byKey[key] = e.Factory
		r.names = append(r.names, e.Name)
	}
	return r, nil
}

// MustNew is New for registries built from constants.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a factory by name, ignoring case.
func (r *Registry) Lookup(name string) (visual.Factory, bool) {
	f, ok := r.byKey[strings.ToLower(name)]
	return f, ok
}

// Names returns entry names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Default is the first registered name.
func (r *Registry) Default() string { return r.names[0] }

// Canonical returns the registered spelling of name.
func (r *Registry) Canonical(name string) (string, bool) {
	for _, n := range r.names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// Next returns the name after name, wrapping around. Unknown names yield
// the default.
func (r *Registry) Next(name string) string {
	for i, n := range r.names {
		if strings.EqualFold(n, name) {
			return r.names[(i+1)%len(r.names)]
		}
	}
	return r.Default()
}

// Prev returns the name before name, wrapping around.
func (r *Registry) Prev(name string) string {
	for i, n := range r.names {
		if strings.EqualFold(n, name) {
			return r.names[(i-1+len(r.names))%len(r.names)]
		}
	}
	return r.Default()
}
