package scenes

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

const (
	circleCount   = 64
	circleSpacing = 3.0
)

// circles is a row of discs stretched vertically by their band's level.
type circles struct {
	stage  *visual.Stage
	discs  []*render.Mesh
	levels []float64
}

// NewCircles returns a Circles factory.
func NewCircles() visual.Factory {
	return func(c *render.Container) visual.Plugin {
		return &circles{stage: visual.NewStage(c)}
	}
}

func (c *circles) Initialize() error {
	if err := c.stage.Open(75, 0.1, 1000); err != nil {
		return err
	}
	c.stage.Camera.Position = render.V(0, 0, 100)

	geo := c.stage.NewGeometry(render.Circle(1, 16))
	mat := c.stage.NewMaterial(render.MaterialOptions{
		Color: colorful.Color{R: 1, G: 1, B: 1},
		Unlit: true,
	})
	c.discs = make([]*render.Mesh, circleCount)
	for i := range c.discs {
		m := render.NewMesh(geo, mat)
		m.Position.X = (float64(i) - circleCount/2) * circleSpacing
		c.stage.Scene.Add(m)
		c.discs[i] = m
	}
	c.levels = make([]float64, circleCount)
	return nil
}

func (c *circles) Update(snap analyzer.Snapshot) error {
	c.levels = snap.Resample(c.levels, circleCount)
	for i, m := range c.discs {
		m.Scale.Y = max(c.levels[i]*25, 0.05)
		m.Rotation.Y += 0.01
	}
	c.stage.Render()
	return nil
}

func (c *circles) Resize(cols, rows int) error { return c.stage.Resize(cols, rows) }

func (c *circles) Dispose() {
	c.discs = nil
	c.stage.Close()
}
