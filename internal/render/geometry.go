package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is untracked vertex data. Pass it to Device.NewGeometry to get a
// geometry a mesh can draw.
type Shape struct {
	Vertices []Vec3
	Edges    [][2]int
}

// Sphere builds a UV sphere with the given number of longitude and latitude
// segments. Poles are shared vertices.
func Sphere(radius float64, widthSegments, heightSegments int) Shape {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	var s Shape
	s.Vertices = append(s.Vertices, V(0, radius, 0))
	for lat := 1; lat < heightSegments; lat++ {
		theta := math.Pi * float64(lat) / float64(heightSegments)
		st, ct := math.Sincos(theta)
		for lon := range widthSegments {
			phi := 2 * math.Pi * float64(lon) / float64(widthSegments)
			sp, cp := math.Sincos(phi)
			s.Vertices = append(s.Vertices, V(radius*st*cp, radius*ct, radius*st*sp))
		}
	}
	s.Vertices = append(s.Vertices, V(0, -radius, 0))
	south := len(s.Vertices) - 1

	ring := func(lat, lon int) int { return 1 + (lat-1)*widthSegments + lon%widthSegments }
	for lat := 1; lat < heightSegments; lat++ {
		for lon := range widthSegments {
			s.Edges = append(s.Edges, [2]int{ring(lat, lon), ring(lat, lon+1)})
			if lat == 1 {
				s.Edges = append(s.Edges, [2]int{0, ring(lat, lon)})
			} else {
				s.Edges = append(s.Edges, [2]int{ring(lat-1, lon), ring(lat, lon)})
			}
			if lat == heightSegments-1 {
				s.Edges = append(s.Edges, [2]int{ring(lat, lon), south})
			}
		}
	}
	return s
}

// Circle builds a closed polygon in the XY plane.
func Circle(radius float64, segments int) Shape {
	segments = max(segments, 3)
	s := Shape{
		Vertices: make([]Vec3, segments),
		Edges:    make([][2]int, segments),
	}
	for i := range segments {
		a := 2 * math.Pi * float64(i) / float64(segments)
		sa, ca := math.Sincos(a)
		s.Vertices[i] = V(radius*ca, radius*sa, 0)
		s.Edges[i] = [2]int{i, (i + 1) % segments}
	}
	return s
}

// TorusKnot builds a (p, q) torus knot as a wireframe tube.
func TorusKnot(radius, tube float64, tubular, radial, p, q int) Shape {
	tubular = max(tubular, 8)
	radial = max(radial, 3)

	curve := func(u float64) Vec3 {
		qu := float64(q) / float64(p) * u
		cs := math.Cos(qu)
		su, cu := math.Sincos(u)
		return V(
			radius*(2+cs)*0.5*cu,
			radius*(2+cs)*0.5*su,
			radius*math.Sin(qu)*0.5,
		)
	}

	var s Shape
	for i := range tubular {
		u := float64(i) / float64(tubular) * float64(p) * 2 * math.Pi
		p1 := curve(u)
		p2 := curve(u + 0.01)
		t := r3.Sub(p2, p1)
		n := r3.Add(p2, p1)
		b := Unit(r3.Cross(t, n))
		n = Unit(r3.Cross(b, t))
		for j := range radial {
			v := float64(j) / float64(radial) * 2 * math.Pi
			sv, cv := math.Sincos(v)
			cx := -tube * cv
			cy := tube * sv
			s.Vertices = append(s.Vertices, r3.Add(p1, r3.Add(r3.Scale(cx, n), r3.Scale(cy, b))))
		}
	}
	idx := func(i, j int) int { return (i%tubular)*radial + j%radial }
	for i := range tubular {
		for j := range radial {
			s.Edges = append(s.Edges,
				[2]int{idx(i, j), idx(i+1, j)},
				[2]int{idx(i, j), idx(i, j+1)},
			)
		}
	}
	return s
}

// Cloud builds n unconnected points uniformly inside a cube of the given
// half-extent. next must return values in [0, 1).
func Cloud(n int, extent float64, next func() float64) Shape {
	s := Shape{Vertices: make([]Vec3, n)}
	for i := range s.Vertices {
		s.Vertices[i] = V(
			(next()*2-1)*extent,
			(next()*2-1)*extent,
			(next()*2-1)*extent,
		)
	}
	return s
}

// Quad builds a unit square in the XY plane centered on the origin.
func Quad(size float64) Shape {
	h := size / 2
	return Shape{
		Vertices: []Vec3{V(-h, -h, 0), V(h, -h, 0), V(h, h, 0), V(-h, h, 0)},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}
}
