package scenes

import (
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

const (
	maxSparks    = 8
	sparkLife    = 24
	onsetJump    = 0.15
	onsetMinBass = 0.3
)

// BarsOptions configures the Bars scene.
type BarsOptions struct {
	Resolution      int
	Radius          float64
	BassIntensity   float64
	TrebleIntensity float64
	RotationSpeed   float64
	Scheme          render.Scheme
	Seed            uint64
}

// DefaultBarsOptions matches the built-in configuration.
func DefaultBarsOptions() BarsOptions {
	return BarsOptions{
		Resolution:      24,
		Radius:          40,
		BassIntensity:   1.5,
		TrebleIntensity: 1.0,
		RotationSpeed:   0.01,
		Scheme:          render.Rainbow,
	}
}

type spark struct {
	mesh *render.Mesh
	dir  render.Vec3
	age  int
}

// bars is a wireframe sphere whose vertices are pushed outward by the band
// each one maps to. Bass sets the glow's hue and treble its lightness. A
// sharp rise in bass throws off a short-lived ring.
type bars struct {
	opts  BarsOptions
	stage *visual.Stage
	rng   *rand.Rand

	sphere   *render.Mesh
	sparks   []*spark
	prevBass float64
}

// NewBars returns a Bars factory.
func NewBars(opts BarsOptions) visual.Factory {
	if opts.Resolution < 3 {
		opts.Resolution = 3
	}
	return func(c *render.Container) visual.Plugin {
		return &bars{
			opts:  opts,
			stage: visual.NewStage(c),
			rng:   rand.New(rand.NewPCG(opts.Seed, 0x5eed)),
		}
	}
}

func (b *bars) Initialize() error {
	if err := b.stage.Open(75, 0.1, 1000); err != nil {
		return err
	}
	b.stage.Camera.Position = render.V(0, 0, 100)
	b.stage.Scene.Background = colorful.Color{}

	res := b.opts.Resolution
	b.sphere = b.stage.AddMesh(render.Sphere(b.opts.Radius, res, res), render.MaterialOptions{
		Color:             colorful.Color{R: 1, G: 1, B: 1},
		Emissive:          colorful.Color{R: 0.27, G: 0.27, B: 0.27},
		EmissiveIntensity: 0.5,
	})
	for i := range 3 {
		a := float64(i) * 2 * math.Pi / 3
		b.stage.Scene.AddLight(&render.Light{
			Position:  render.V(math.Sin(a)*60, 0, math.Cos(a)*60),
			Color:     colorful.Color{R: 1, G: 1, B: 1},
			Intensity: 0.5,
			Distance:  100,
		})
	}
	return nil
}

func (b *bars) Update(snap analyzer.Snapshot) error {
	bass, treble := snap.Bass(), snap.Treble()
	res := b.opts.Resolution

	g := b.sphere.Geometry
	// Only the first res/2 vertices get the bass weight; the rest use treble.
	for i, v := range g.Base {
		intensity := b.opts.TrebleIntensity
		if i < res/2 {
			intensity = b.opts.BassIntensity
		}
		factor := 1 + snap.Level(i%res)*2*intensity
		g.Vertices[i] = r3.Scale(factor, v)
	}

	m := b.sphere.Material
	m.Emissive = render.HSL(b.opts.Scheme.Hue(bass), 1, treble*0.5)
	b.sphere.Rotation.Y += b.opts.RotationSpeed

	b.ageSparks()
	if bass-b.prevBass > onsetJump && bass > onsetMinBass && len(b.sparks) < maxSparks {
		b.emitSpark(bass)
	}
	b.prevBass = bass

	b.stage.Render()
	return nil
}

func (b *bars) emitSpark(bass float64) {
	dir := render.Unit(render.V(b.rng.Float64()*2-1, b.rng.Float64()*2-1, b.rng.Float64()*2-1))
	mesh := b.stage.AddMesh(render.Circle(b.opts.Radius*0.15, 12), render.MaterialOptions{
		Color: render.HSL(b.opts.Scheme.Hue(bass), 1, 0.6),
		Unlit: true,
	})
	mesh.Position = r3.Scale(b.opts.Radius, dir)
	b.sparks = append(b.sparks, &spark{mesh: mesh, dir: dir})
}

// ageSparks moves live sparks outward and releases the expired ones.
func (b *bars) ageSparks() {
	live := b.sparks[:0]
	for _, s := range b.sparks {
		s.age++
		if s.age >= sparkLife {
			b.stage.Scene.Remove(s.mesh)
			b.stage.Drop(s.mesh.Geometry)
			b.stage.Drop(s.mesh.Material)
			continue
		}
		t := float64(s.age) / sparkLife
		s.mesh.Position = r3.Scale(b.opts.Radius*(1+t), s.dir)
		s.mesh.Scale = render.V(1+t, 1+t, 1+t)
		s.mesh.Material.Opacity = 1 - t
		live = append(live, s)
	}
	clear(b.sparks[len(live):])
	b.sparks = live
}

func (b *bars) Resize(cols, rows int) error {
	return b.stage.Resize(cols, rows)
}

func (b *bars) Dispose() {
	b.sparks = nil
	b.stage.Close()
}
