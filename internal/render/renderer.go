package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/muesli/termenv"
)

// Surfaces larger than this are rejected rather than allocated.
const (
	MaxCols = 1000
	MaxRows = 500
)

var ErrInvalidSize = errors.New("invalid surface size")

// Renderer rasterizes scenes into an offscreen target and presents the
// result to its Surface.
type Renderer struct {
	dev      *Device
	target   *Target
	surface  *Surface
	profile  termenv.Profile
	released bool
}

func checkSize(cols, rows int) error {
	if cols <= 0 || rows <= 0 || cols > MaxCols || rows > MaxRows {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	return nil
}

// NewRenderer allocates a render target of cols x rows cells.
func NewRenderer(dev *Device, cols, rows int, profile termenv.Profile) (*Renderer, error) {
	if err := checkSize(cols, rows); err != nil {
		return nil, err
	}
	return &Renderer{
		dev:     dev,
		target:  dev.newTarget(cols, rows),
		surface: &Surface{cols: cols, rows: rows},
		profile: profile,
	}, nil
}

// Surface is the element the renderer presents to.
func (r *Renderer) Surface() *Surface { return r.surface }

// Canvas exposes the target for scenes that draw in 2-D.
func (r *Renderer) Canvas() *Canvas { return r.target.canvas }

// Aspect is the width/height ratio of the target in dots.
func (r *Renderer) Aspect() float64 {
	w, h := r.target.canvas.DotSize()
	if h == 0 {
		return 1
	}
	return float64(w) / float64(h)
}

// SetSize reallocates the target. The previous target is released only
// once the new size has been validated.
func (r *Renderer) SetSize(cols, rows int) error {
	if r.released {
		return errors.New("renderer released")
	}
	if err := checkSize(cols, rows); err != nil {
		return err
	}
	if c, rr := r.target.canvas.Size(); c == cols && rr == rows {
		return nil
	}
	r.target.Release()
	r.target = r.dev.newTarget(cols, rows)
	r.surface.setSize(cols, rows)
	return nil
}

// Render draws every visible mesh of scene through cam and presents the
// frame.
func (r *Renderer) Render(scene *Scene, cam *Camera) {
	if r.released {
		return
	}
	cv := r.target.canvas
	cv.Clear()
	w, h := cv.DotSize()

	type projected struct {
		x, y  int
		depth float64
		ok    bool
	}
	var pts []projected
	var world []Vec3

	for _, m := range scene.Meshes() {
		if !m.Visible || m.Geometry == nil || m.Material == nil {
			continue
		}
		verts := m.Geometry.Vertices
		if cap(pts) < len(verts) {
			pts = make([]projected, len(verts))
			world = make([]Vec3, len(verts))
		}
		pts, world = pts[:len(verts)], world[:len(verts)]
		for i, v := range verts {
			world[i] = m.Apply(v)
			x, y, d, ok := cam.Project(world[i])
			if ok && (math.Abs(x) > 4 || math.Abs(y) > 4) {
				ok = false
			}
			pts[i] = projected{
				x:     int((x + 1) / 2 * float64(w)),
				y:     int((1 - y) / 2 * float64(h)),
				depth: d,
				ok:    ok,
			}
		}

		if m.Material.Points || len(m.Geometry.Edges) == 0 {
			for i, p := range pts {
				if p.ok {
					cv.PlotDepth(p.x, p.y, p.depth, scene.shade(m.Material, world[i]))
				}
			}
			continue
		}
		for _, e := range m.Geometry.Edges {
			a, b := pts[e[0]], pts[e[1]]
			if !a.ok || !b.ok {
				continue
			}
			col := scene.shade(m.Material, lerp(world[e[0]], world[e[1]], 0.5))
			cv.LineDepth(a.x, a.y, a.depth, b.x, b.y, b.depth, col)
		}
	}
	r.Present()
}

// Present pushes the target's current contents to the surface.
func (r *Renderer) Present() {
	if r.released {
		return
	}
	r.surface.present(r.target.canvas.String(r.profile))
}

// Release frees the render target. Idempotent.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	r.released = true
	r.target.Release()
}
