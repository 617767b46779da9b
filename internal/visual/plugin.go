// Package visual defines the contract every visualization implements and a
// composable helper for the common scene plumbing.
package visual

import (
	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
)

// Plugin is one swappable visualization.
//
// Initialize is called exactly once, before any Update. It allocates the
// plugin's scene and attaches its surface to the container; a missing asset
// or unusable container must be returned as an error.
//
// Update renders one complete frame from snap. snap is only valid for the
// duration of the call. Transient objects created here must also be aged out
// here so repeated calls do not grow memory.
//
// Dispose releases every resource the plugin allocated and detaches its
// surface. It must cope with a partially initialized plugin and may be
// called more than once. A disposed plugin is never reused.
type Plugin interface {
	Initialize() error
	Update(snap analyzer.Snapshot) error
	Dispose()
}

// Resizer is implemented by plugins that reconfigure on container resize.
type Resizer interface {
	Resize(cols, rows int) error
}

// Factory builds an uninitialized plugin bound to container.
type Factory func(container *render.Container) Plugin
