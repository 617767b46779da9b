package scenes

import (
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/harmonica"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

// CircuitBeatOptions configures the CircuitBeat scene.
type CircuitBeatOptions struct {
	Knots       int
	Particles   int
	OrbitRadius float64
	OrbitSpeed  float64
	FPS         int
	Seed        uint64
}

func DefaultCircuitBeatOptions() CircuitBeatOptions {
	return CircuitBeatOptions{Knots: 5, Particles: 100, OrbitRadius: 60, OrbitSpeed: 0.1, FPS: 60}
}

const (
	ringRadius   = 30.0
	cameraHeight = 30.0
	particleSpan = 100.0
)

// circuitBeat is a ring of torus knots that swell and change hue with their
// band, inside a drifting particle field, seen from a camera that eases
// around the ring on springs.
type circuitBeat struct {
	opts  CircuitBeatOptions
	stage *visual.Stage
	rng   *rand.Rand

	knots     []*render.Mesh
	particles *render.Mesh
	follow    *render.Light

	spring     harmonica.Spring
	camX, velX float64
	camZ, velZ float64
	time       float64
}

// NewCircuitBeat returns a CircuitBeat factory.
func NewCircuitBeat(opts CircuitBeatOptions) visual.Factory {
	opts.Knots = max(opts.Knots, 1)
	opts.Particles = max(opts.Particles, 0)
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	return func(c *render.Container) visual.Plugin {
		return &circuitBeat{
			opts:   opts,
			stage:  visual.NewStage(c),
			rng:    rand.New(rand.NewPCG(opts.Seed, 0xc1c)),
			spring: harmonica.NewSpring(harmonica.FPS(opts.FPS), 2.0, 1.0),
		}
	}
}

func (s *circuitBeat) Initialize() error {
	if err := s.stage.Open(75, 0.1, 2000); err != nil {
		return err
	}
	sc := s.stage.Scene
	sc.Ambient = 0.25
	s.camX, s.camZ = s.opts.OrbitRadius, 0
	s.stage.Camera.Position = render.V(s.camX, cameraHeight, s.camZ)

	s.follow = &render.Light{Color: colorful.Color{R: 1, G: 1, B: 1}, Intensity: 0.6}
	sc.AddLight(s.follow)
	sc.AddLight(&render.Light{Color: colorful.Color{G: 1}, Intensity: 0.8, Distance: 100})

	s.particles = s.stage.AddMesh(
		render.Cloud(s.opts.Particles, particleSpan, s.rng.Float64),
		render.MaterialOptions{Color: colorful.Color{R: 0.53, G: 0.53, B: 0.53}, Points: true, Unlit: true},
	)

	shape := render.TorusKnot(5, 1, 64, 8, 2, 3)
	for i := range s.opts.Knots {
		a := float64(i) / float64(s.opts.Knots) * 2 * math.Pi
		m := s.stage.AddMesh(shape, render.MaterialOptions{Color: colorful.Color{R: 1, G: 1, B: 1}})
		m.Position = render.V(math.Cos(a)*ringRadius, 0, math.Sin(a)*ringRadius)
		m.Rotation = render.V(s.rng.Float64()*math.Pi, s.rng.Float64()*math.Pi, s.rng.Float64()*math.Pi)
		s.knots = append(s.knots, m)
	}
	return nil
}

func (s *circuitBeat) Update(snap analyzer.Snapshot) error {
	s.time += 1 / float64(s.opts.FPS)

	eased := math.Sin(s.time * s.opts.OrbitSpeed * math.Pi / 2)
	tx := math.Cos(eased) * s.opts.OrbitRadius
	tz := math.Sin(eased) * s.opts.OrbitRadius
	s.camX, s.velX = s.spring.Update(s.camX, s.velX, tx)
	s.camZ, s.velZ = s.spring.Update(s.camZ, s.velZ, tz)
	cam := s.stage.Camera
	cam.Position = render.V(s.camX, cameraHeight+math.Sin(s.time*0.5)*5, s.camZ)
	cam.LookAt(render.V(0, 0, 0))
	s.follow.Position = cam.Position

	n := len(s.knots)
	for i, m := range s.knots {
		m.Rotation.X += 0.01
		m.Rotation.Y += 0.01
		amp := snap.Level(i * len(snap) / n)
		m.Scale = render.V(1+amp*2, 1+amp*2, 1+amp*2)
		m.Material.Color = render.HSL(amp, 1, 0.5)
	}

	verts := s.particles.Geometry.Vertices
	for i := range verts {
		p := &verts[i]
		p.Y += math.Sin(s.time*2+p.X*0.02) * 0.5
		if p.Y > particleSpan {
			p.Y = -particleSpan
		}
		amp := snap.Level(i * len(snap) / max(len(verts), 1))
		p.Z = (amp - 0.5) * 2 * particleSpan
	}

	s.stage.Render()
	return nil
}

func (s *circuitBeat) Resize(cols, rows int) error { return s.stage.Resize(cols, rows) }

func (s *circuitBeat) Dispose() {
	s.knots = nil
	s.particles = nil
	s.stage.Close()
}
