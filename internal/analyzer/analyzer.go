// Package analyzer turns the audio flowing through a graph into per-frame
// frequency magnitude snapshots.
package analyzer

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/olivier-w/climpviz/internal/audiograph"
	"github.com/olivier-w/climpviz/internal/log"
)

const (
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	minFFTSize = 32

	// The tap keeps a few transform windows of history so a slow frame loop
	// still sees the most recent audio.
	tapWindows = 4
)

// Config configures the transform. The zero value is not valid; start from
// DefaultConfig.
type Config struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns a 256-point transform producing 128 bands.
func DefaultConfig() Config {
	return Config{
		FFTSize:     DefaultFFTSize,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

func (c Config) validate() error {
	if c.FFTSize < minFFTSize || bits.OnesCount(uint(c.FFTSize)) != 1 {
		return fmt.Errorf("fft size %d is not a power of two >= %d", c.FFTSize, minFFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing %v outside [0, 1)", c.Smoothing)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("decibel range [%v, %v] is empty", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Analyzer exposes the spectrum of whatever source it is bound to.
type Analyzer struct {
	ctx *audiograph.Context
	cfg Config

	mu       sync.Mutex
	node     *audiograph.AnalyserNode
	version  uint64
	computed bool

	fft      *fourier.FFT
	window   []float64
	samples  []float32
	input    []float64
	coeffs   []complex128
	smoothed []float64
	snap     Snapshot
}

// New creates an unbound analyzer on ctx.
func New(ctx *audiograph.Context, cfg Config) (*Analyzer, error) {
	if ctx == nil {
		return nil, fmt.Errorf("analyzer: nil audio context")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	n := cfg.FFTSize
	win := make([]float64, n)
	for i := range win {
		win[i] = 1
	}
	return &Analyzer{
		ctx:      ctx,
		cfg:      cfg,
		fft:      fourier.NewFFT(n),
		window:   window.Blackman(win),
		samples:  make([]float32, n),
		input:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		snap:     make(Snapshot, n/2),
	}, nil
}

// Bands returns the snapshot length, fixed for the analyzer's lifetime.
func (a *Analyzer) Bands() int { return a.cfg.FFTSize / 2 }

// Bind attaches the analyzer to src, replacing any previous binding. The
// analyser node is inserted inline: src -> analyser -> destination.
//
// On failure the analyzer is left unbound and reads return zeros, so a
// broken source never shows the previous track's spectrum.
func (a *Analyzer) Bind(src audiograph.Node) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()

	if src == nil {
		return &BindingError{Err: ErrNoSource}
	}
	if src.Context() != a.ctx {
		return &BindingError{Err: ErrForeignContext}
	}

	node := a.ctx.NewAnalyser(a.cfg.FFTSize * tapWindows)
	if err := a.ctx.Connect(src, node); err != nil {
		return &BindingError{Err: err}
	}
	if err := a.ctx.Connect(node, a.ctx.Destination()); err != nil {
		a.ctx.Disconnect(node)
		return &BindingError{Err: err}
	}
	a.node = node
	log.Debugf("analyzer: bound %d-band analyser", a.Bands())
	return nil
}

// Release disconnects the analyser node from the graph. Idempotent.
func (a *Analyzer) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

func (a *Analyzer) releaseLocked() {
	if a.node != nil {
		a.ctx.Disconnect(a.node)
		a.node = nil
	}
	a.computed = false
	a.version = 0
	clear(a.smoothed)
	clear(a.snap)
}

// Bound reports whether a source is attached.
func (a *Analyzer) Bound() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.node != nil
}

// Read returns the current snapshot. The returned slice is owned by the
// analyzer and refreshed in place; callers must not keep it past the current
// frame. Without new audio since the previous read the same values are
// returned; an unbound analyzer returns zeros.
func (a *Analyzer) Read() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.node == nil {
		return a.snap
	}
	if a.computed && a.node.Written() == a.version {
		return a.snap
	}
	a.version = a.node.Latest(a.samples)
	a.computed = true
	a.transform()
	return a.snap
}

func (a *Analyzer) transform() {
	n := a.cfg.FFTSize
	for i, s := range a.samples {
		a.input[i] = float64(s) * a.window[i]
	}
	a.fft.Coefficients(a.coeffs, a.input)

	tc := a.cfg.Smoothing
	span := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / float64(n)
		a.smoothed[k] = tc*a.smoothed[k] + (1-tc)*mag
		a.snap[k] = toByte(a.smoothed[k], a.cfg.MinDecibels, span)
	}
}

// toByte maps a linear magnitude onto 0..255 across the decibel window.
func toByte(mag, minDB, span float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDB) / span
	switch {
	case math.IsNaN(scaled) || scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}
