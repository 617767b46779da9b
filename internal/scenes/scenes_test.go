package scenes

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/config"
	"github.com/olivier-w/climpviz/internal/host"
	"github.com/olivier-w/climpviz/internal/render"
)

// scriptSource returns whatever snapshot gen builds for the current frame.
type scriptSource struct {
	frame int
	snap  analyzer.Snapshot
	gen   func(frame int, snap analyzer.Snapshot)
}

func (s *scriptSource) Read() analyzer.Snapshot {
	s.gen(s.frame, s.snap)
	s.frame++
	return s.snap
}

func newHost(t *testing.T, src host.Source) (*host.Host, *render.Container, *[]error) {
	t.Helper()
	c := render.NewContainer(render.NewDevice(), 60, 20)
	var reports []error
	h := host.New(c, src, host.WithReporter(func(err error) { reports = append(reports, err) }))
	return h, c, &reports
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: 200, B: uint8(y * 16), A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return path
}

func TestBarsRampReleasesEverything(t *testing.T) {
	src := &scriptSource{
		snap: make(analyzer.Snapshot, 128),
		gen: func(frame int, snap analyzer.Snapshot) {
			// 0 -> 255 over 150 frames, then back down.
			v := frame * 255 / 150
			if frame > 150 {
				v = (300 - frame) * 255 / 150
			}
			snap[0] = uint8(max(0, min(255, v)))
		},
	}
	h, c, reports := newHost(t, src)

	if err := h.Activate(Bars, NewBars(DefaultBarsOptions())); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	for range 300 {
		h.Frame()
	}
	if len(*reports) != 0 {
		t.Fatalf("expected no errors, got %v", *reports)
	}
	h.Stop()

	st := c.Device().Stats()
	if st.TotalAllocated() != st.TotalReleased() {
		t.Fatalf("expected released == allocated, got %d/%d", st.TotalReleased(), st.TotalAllocated())
	}
	if !c.Empty() {
		t.Fatal("expected container empty after stop")
	}
}

func TestBarsSparksAgeOut(t *testing.T) {
	src := &scriptSource{
		snap: make(analyzer.Snapshot, 128),
		gen: func(frame int, snap analyzer.Snapshot) {
			v := uint8(0)
			if frame%4 == 0 {
				v = 255
			}
			for i := range 4 {
				snap[i] = v
			}
		},
	}
	h, c, _ := newHost(t, src)
	_ = h.Activate(Bars, NewBars(DefaultBarsOptions()))
	base := c.Device().Stats().Live()

	peak := 0
	for range 200 {
		h.Frame()
		peak = max(peak, c.Device().Stats().Live()-base)
	}
	if c.Device().Stats().TotalAllocated() == base {
		t.Fatal("expected bass onsets to emit sparks")
	}
	if peak > maxSparks*2 {
		t.Fatalf("expected at most %d live spark resources, saw %d", maxSparks*2, peak)
	}

	h.Stop()
	if live := c.Device().Stats().Live(); live != 0 {
		t.Fatalf("expected no live resources after stop, got %d", live)
	}
}

func TestBarsToleratesMismatchedSnapshots(t *testing.T) {
	opts := DefaultBarsOptions()
	opts.Resolution = 200
	p := NewBars(opts)(render.NewContainer(render.NewDevice(), 30, 10))
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer p.Dispose()

	for _, snap := range []analyzer.Snapshot{nil, {255}, make(analyzer.Snapshot, 16)} {
		if err := p.Update(snap); err != nil {
			t.Fatalf("Update with %d bands: %v", len(snap), err)
		}
	}
}

func TestEverySceneRunsAndCleansUp(t *testing.T) {
	cfg := config.Default().Scenes
	cfg.PulsingImage.Path = writePNG(t)
	reg, err := Registry(cfg, 60)
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if got := reg.Names(); len(got) != len(Names) || reg.Default() != Bars {
		t.Fatalf("expected %v with Bars first, got %v", Names, got)
	}

	src := &scriptSource{
		snap: make(analyzer.Snapshot, 128),
		gen: func(frame int, snap analyzer.Snapshot) {
			for i := range snap {
				snap[i] = uint8((frame*7 + i*13) % 256)
			}
		},
	}
	h, c, reports := newHost(t, src)
	for _, name := range reg.Names() {
		f, _ := reg.Lookup(name)
		if err := h.Activate(name, f); err != nil {
			t.Fatalf("Activate %s: %v", name, err)
		}
		for range 20 {
			h.Frame()
		}
		if err := h.Resize(40, 12); err != nil {
			t.Fatalf("Resize %s: %v", name, err)
		}
		h.Frame()
		if c.Empty() {
			t.Fatalf("expected %s to hold the container", name)
		}
	}
	h.Stop()

	if len(*reports) != 0 {
		t.Fatalf("expected no reported errors, got %v", *reports)
	}
	if st := c.Device().Stats(); st.Live() != 0 {
		t.Fatalf("expected all resources released, %d live", st.Live())
	}
}

func TestRegistryRejectsUnknownScheme(t *testing.T) {
	cfg := config.Default().Scenes
	cfg.Bars.ColorScheme = "neon"
	if _, err := Registry(cfg, 60); err == nil {
		t.Fatal("expected error for unknown color scheme")
	}
}

func TestPulsingImageMissingAssetFailsInit(t *testing.T) {
	h, c, _ := newHost(t, &scriptSource{gen: func(int, analyzer.Snapshot) {}})
	err := h.Activate(PulsingImage, NewPulsingImage(filepath.Join(t.TempDir(), "missing.png")))

	var ierr *host.PluginInitError
	if !errors.As(err, &ierr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected PluginInitError wrapping ErrNotExist, got %v", err)
	}
	if h.State() != host.Idle {
		t.Fatalf("expected idle host, got %v", h.State())
	}
	if live := c.Device().Stats().Live(); live != 0 {
		t.Fatalf("expected nothing allocated, got %d live", live)
	}

	if err := h.Activate(PulsingImage, NewPulsingImage("")); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestPulsingImageShowsPlaceholderUntilLoaded(t *testing.T) {
	c := render.NewContainer(render.NewDevice(), 30, 10)
	p := NewPulsingImage(writePNG(t))(c).(*pulsingImage)
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	<-p.loaded

	snap := make(analyzer.Snapshot, 128)
	if err := p.Update(snap); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.texture == nil {
		t.Fatal("expected texture after load")
	}
	if p.placeholder.Visible {
		t.Fatal("expected placeholder hidden once the image is up")
	}
	if p.stage.Renderer.Canvas().Lit() == 0 {
		t.Fatal("expected image to light dots")
	}

	p.Dispose()
	if live := c.Device().Stats().Live(); live != 0 {
		t.Fatalf("expected texture released, got %d live", live)
	}
}

func TestPulsingImageDropsLateLoad(t *testing.T) {
	c := render.NewContainer(render.NewDevice(), 30, 10)
	p := NewPulsingImage(writePNG(t))(c).(*pulsingImage)
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	p.Dispose()
	<-p.loaded

	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()
	if pending != nil {
		t.Fatal("expected decoded image to be dropped after dispose")
	}
	if st := c.Device().Stats(); st.Allocated[render.KindTexture] != 0 || st.Live() != 0 {
		t.Fatalf("expected no texture allocated and nothing live, got %+v", st)
	}
}

func TestLogBands(t *testing.T) {
	snap := make(analyzer.Snapshot, 128)
	for i := range snap {
		snap[i] = 255
	}
	dst := logBands(snap, make([]float64, 16))
	for i, v := range dst {
		if v != 1 {
			t.Fatalf("expected full band %d, got %v", i, v)
		}
	}
	if got := logBands(nil, []float64{0.5}); got[0] != 0 {
		t.Fatalf("expected empty snapshot to yield zeros, got %v", got)
	}
}

func TestBarsWeightsLeadingVerticesWithBass(t *testing.T) {
	opts := DefaultBarsOptions()
	opts.BassIntensity = 2
	opts.TrebleIntensity = 0.5
	c := render.NewContainer(render.NewDevice(), 40, 12)
	b := NewBars(opts)(c).(*bars)
	if err := b.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer b.Dispose()

	snap := make(analyzer.Snapshot, 128)
	for i := range snap {
		snap[i] = 255
	}
	if err := b.Update(snap); err != nil {
		t.Fatalf("Update: %v", err)
	}

	g := b.sphere.Geometry
	res := opts.Resolution
	for _, tc := range []struct {
		vertex int
		want   float64
	}{
		{0, 1 + 2*opts.BassIntensity},
		{res/2 - 1, 1 + 2*opts.BassIntensity},
		{res / 2, 1 + 2*opts.TrebleIntensity},
		{res, 1 + 2*opts.TrebleIntensity},
	} {
		got := r3.Norm(g.Vertices[tc.vertex]) / r3.Norm(g.Base[tc.vertex])
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("vertex %d: expected scale %v, got %v", tc.vertex, tc.want, got)
		}
	}
}

func TestMatrixRainFollowsLevel(t *testing.T) {
	run := func(level uint8) string {
		c := render.NewContainer(render.NewDevice(), 40, 12)
		p := NewMatrix(7)(c)
		if err := p.Initialize(); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		defer p.Dispose()
		snap := make(analyzer.Snapshot, 128)
		for i := range snap {
			snap[i] = level
		}
		for range 30 {
			if err := p.Update(snap); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
		return c.View()
	}

	const glyphs = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if view := run(0); strings.ContainsAny(view, glyphs) {
		t.Fatalf("expected no rain in silence, got %q", view)
	}
	if view := run(255); !strings.ContainsAny(view, glyphs) {
		t.Fatal("expected rain at full level")
	}
}
