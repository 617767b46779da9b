package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point or direction in world space.
type Vec3 = r3.Vec

func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

var (
	axisX = V(1, 0, 0)
	axisY = V(0, 1, 0)
	axisZ = V(0, 0, 1)
)

// Unit returns v scaled to length 1, or the zero vector unchanged.
func Unit(v Vec3) Vec3 {
	if v == (Vec3{}) {
		return v
	}
	return r3.Unit(v)
}

func lerp(a, b Vec3, t float64) Vec3 {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// rotate applies Euler rotation r (radians) in X, Y, Z order.
func rotate(p, r Vec3) Vec3 {
	if r.X != 0 {
		p = r3.NewRotation(r.X, axisX).Rotate(p)
	}
	if r.Y != 0 {
		p = r3.NewRotation(r.Y, axisY).Rotate(p)
	}
	if r.Z != 0 {
		p = r3.NewRotation(r.Z, axisZ).Rotate(p)
	}
	return p
}

// Transform places an object in the world: scale, then rotate, then move.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

func identity() Transform {
	return Transform{Scale: V(1, 1, 1)}
}

// Apply maps a local-space point into world space.
func (t Transform) Apply(p Vec3) Vec3 {
	scaled := V(p.X*t.Scale.X, p.Y*t.Scale.Y, p.Z*t.Scale.Z)
	return r3.Add(rotate(scaled, t.Rotation), t.Position)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
