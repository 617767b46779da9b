package render

import (
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh draws a geometry with a material at a position in the world.
type Mesh struct {
	Transform
	Geometry *Geometry
	Material *Material
	Visible  bool
}

// NewMesh returns a visible mesh at the origin. The mesh does not own g or
// m; whoever allocated them releases them.
func NewMesh(g *Geometry, m *Material) *Mesh {
	return &Mesh{Transform: identity(), Geometry: g, Material: m, Visible: true}
}

// Light is a point light with linear falloff to zero at Distance. A zero
// Distance never falls off.
type Light struct {
	Position  Vec3
	Color     colorful.Color
	Intensity float64
	Distance  float64
}

func (l *Light) contribution(p Vec3) float64 {
	if l.Distance <= 0 {
		return l.Intensity
	}
	d := r3.Norm(r3.Sub(l.Position, p))
	if d >= l.Distance {
		return 0
	}
	return l.Intensity * (1 - d/l.Distance)
}

// Scene is an ordered list of meshes and lights.
type Scene struct {
	Background colorful.Color
	Ambient    float64

	meshes []*Mesh
	lights []*Light
}

// NewScene returns an empty scene with a dim ambient term.
func NewScene() *Scene {
	return &Scene{Ambient: 0.3}
}

func (s *Scene) Add(m *Mesh) {
	if !slices.Contains(s.meshes, m) {
		s.meshes = append(s.meshes, m)
	}
}

// Remove detaches m from the scene and reports whether it was present.
func (s *Scene) Remove(m *Mesh) bool {
	i := slices.Index(s.meshes, m)
	if i < 0 {
		return false
	}
	s.meshes = slices.Delete(s.meshes, i, i+1)
	return true
}

func (s *Scene) AddLight(l *Light) { s.lights = append(s.lights, l) }

func (s *Scene) Meshes() []*Mesh  { return s.meshes }
func (s *Scene) Lights() []*Light { return s.lights }

// Clear drops every mesh and light. Resources are not released.
func (s *Scene) Clear() {
	s.meshes = nil
	s.lights = nil
}

// shade returns the lit color of material m at world point p.
func (s *Scene) shade(m *Material, p Vec3) colorful.Color {
	base := m.Color
	if !m.Unlit {
		k := s.Ambient
		var lr, lg, lb float64
		for _, l := range s.lights {
			c := l.contribution(p)
			lr += l.Color.R * c
			lg += l.Color.G * c
			lb += l.Color.B * c
		}
		base = colorful.Color{
			R: base.R * (k + lr),
			G: base.G * (k + lg),
			B: base.B * (k + lb),
		}
	}
	e := m.EmissiveIntensity
	out := colorful.Color{
		R: base.R + m.Emissive.R*e,
		G: base.G + m.Emissive.G*e,
		B: base.B + m.Emissive.B*e,
	}
	if m.Opacity < 1 {
		out = s.Background.BlendRgb(out, clamp01(m.Opacity))
	}
	return out.Clamped()
}
