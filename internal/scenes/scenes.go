// Package scenes holds the built-in visualizations and binds them to their
// names.
package scenes

import (
	"fmt"

	"github.com/olivier-w/climpviz/internal/config"
	"github.com/olivier-w/climpviz/internal/registry"
	"github.com/olivier-w/climpviz/internal/render"
)

// Scene names, in menu order. The first is the default.
const (
	Bars         = "Bars"
	Circles      = "Circles"
	CircuitBeat  = "CircuitBeat"
	Spectrum     = "Spectrum"
	Waterfall    = "Waterfall"
	PulsingImage = "PulsingImage"
	Matrix       = "Matrix"
)

// Names lists every built-in scene.
var Names = []string{Bars, Circles, CircuitBeat, Spectrum, Waterfall, PulsingImage, Matrix}

// Registry builds the scene registry from configuration.
func Registry(cfg config.ScenesConfig, fps int) (*registry.Registry, error) {
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	scheme, ok := render.ParseScheme(cfg.Bars.ColorScheme)
	if !ok && cfg.Bars.ColorScheme != "" {
		return nil, fmt.Errorf("unknown color scheme %q", cfg.Bars.ColorScheme)
	}

	bars := DefaultBarsOptions()
	if cfg.Bars.Resolution > 0 {
		bars.Resolution = cfg.Bars.Resolution
	}
	if cfg.Bars.Radius > 0 {
		bars.Radius = cfg.Bars.Radius
	}
	if cfg.Bars.BassIntensity > 0 {
		bars.BassIntensity = cfg.Bars.BassIntensity
	}
	if cfg.Bars.TrebleIntensity > 0 {
		bars.TrebleIntensity = cfg.Bars.TrebleIntensity
	}
	bars.RotationSpeed = cfg.Bars.RotationSpeed
	bars.Scheme = scheme

	circuit := DefaultCircuitBeatOptions()
	if cfg.CircuitBeat.Knots > 0 {
		circuit.Knots = cfg.CircuitBeat.Knots
	}
	if cfg.CircuitBeat.Particles > 0 {
		circuit.Particles = cfg.CircuitBeat.Particles
	}
	if cfg.CircuitBeat.OrbitRadius > 0 {
		circuit.OrbitRadius = cfg.CircuitBeat.OrbitRadius
	}
	if cfg.CircuitBeat.OrbitSpeed > 0 {
		circuit.OrbitSpeed = cfg.CircuitBeat.OrbitSpeed
	}
	circuit.FPS = fps

	return registry.New(
		registry.Entry{Name: Bars, Factory: NewBars(bars)},
		registry.Entry{Name: Circles, Factory: NewCircles()},
		registry.Entry{Name: CircuitBeat, Factory: NewCircuitBeat(circuit)},
		registry.Entry{Name: Spectrum, Factory: NewSpectrum(fps)},
		registry.Entry{Name: Waterfall, Factory: NewWaterfall(fps)},
		registry.Entry{Name: PulsingImage, Factory: NewPulsingImage(cfg.PulsingImage.Path)},
		registry.Entry{Name: Matrix, Factory: NewMatrix(1)},
	)
}
