package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	FOV    float64 // vertical field of view in degrees
	Aspect float64
	Near   float64
	Far    float64

	Position Vec3
	Target   Vec3
	Up       Vec3
}

func NewCamera(fov, aspect, near, far float64) *Camera {
	return &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     axisY,
	}
}

func (c *Camera) LookAt(target Vec3) { c.Target = target }

// SetAspect updates the width/height ratio. Non-positive values are ignored.
func (c *Camera) SetAspect(aspect float64) {
	if aspect > 0 && !math.IsInf(aspect, 0) {
		c.Aspect = aspect
	}
}

// Project maps a world point to normalized device coordinates in [-1, 1]
// and its distance along the view axis. ok is false when the point lies
// outside the near and far planes.
func (c *Camera) Project(p Vec3) (x, y, depth float64, ok bool) {
	f := Unit(r3.Sub(c.Target, c.Position))
	r := Unit(r3.Cross(f, c.Up))
	u := r3.Cross(r, f)

	rel := r3.Sub(p, c.Position)
	depth = r3.Dot(rel, f)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}
	t := math.Tan(c.FOV * math.Pi / 360)
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	x = r3.Dot(rel, r) / (depth * t * aspect)
	y = r3.Dot(rel, u) / (depth * t)
	return x, y, depth, true
}
