// Package render is a small software 3-D renderer that rasterizes wireframe
// and point meshes onto a braille framebuffer for display in a terminal.
//
// Every geometry, material, texture and render target is allocated from a
// Device, which counts allocations and releases so callers can verify that a
// scene gave back everything it took.
package render

import (
	"image"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Kind identifies a class of device resource.
type Kind uint8

const (
	KindGeometry Kind = iota
	KindMaterial
	KindTexture
	KindTarget
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindMaterial:
		return "material"
	case KindTexture:
		return "texture"
	case KindTarget:
		return "target"
	default:
		return "unknown"
	}
}

// Resource is anything allocated from a Device.
type Resource interface {
	Kind() Kind
	Release()
}

// Stats is a point-in-time view of a Device's bookkeeping.
type Stats struct {
	Allocated [kindCount]int
	Released  [kindCount]int
}

// TotalAllocated sums allocations across kinds.
func (s Stats) TotalAllocated() int {
	n := 0
	for _, v := range s.Allocated {
		n += v
	}
	return n
}

// TotalReleased sums releases across kinds.
func (s Stats) TotalReleased() int {
	n := 0
	for _, v := range s.Released {
		n += v
	}
	return n
}

// Live is the number of resources not yet released.
func (s Stats) Live() int { return s.TotalAllocated() - s.TotalReleased() }

// Device hands out tracked resources. It is safe for concurrent use.
type Device struct {
	mu    sync.Mutex
	stats Stats
}

// NewDevice returns an empty device.
func NewDevice() *Device {
	return &Device{}
}

// Stats returns a copy of the allocation counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) alloc(k Kind) handle {
	d.mu.Lock()
	d.stats.Allocated[k]++
	d.mu.Unlock()
	return handle{dev: d, kind: k}
}

// handle is the bookkeeping shared by every resource type. Releasing it more
// than once is a no-op.
type handle struct {
	dev      *Device
	kind     Kind
	released bool
}

func (h *handle) Kind() Kind { return h.kind }

// Released reports whether the resource has been given back.
func (h *handle) Released() bool {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	return h.released
}

func (h *handle) Release() {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.dev.stats.Released[h.kind]++
}

// Geometry is a set of vertices joined by edges. Base keeps the vertices as
// built so callers can displace Vertices each frame and start fresh.
type Geometry struct {
	handle
	Base     []Vec3
	Vertices []Vec3
	Edges    [][2]int
}

// NewGeometry copies shape into a tracked geometry.
func (d *Device) NewGeometry(shape Shape) *Geometry {
	g := &Geometry{
		handle:   d.alloc(KindGeometry),
		Base:     append([]Vec3(nil), shape.Vertices...),
		Vertices: append([]Vec3(nil), shape.Vertices...),
		Edges:    append([][2]int(nil), shape.Edges...),
	}
	return g
}

// Reset restores Vertices from Base.
func (g *Geometry) Reset() {
	copy(g.Vertices, g.Base)
}

// Material describes how a mesh is shaded.
type Material struct {
	handle
	Color             colorful.Color
	Emissive          colorful.Color
	EmissiveIntensity float64
	Opacity           float64
	// Points draws vertices only instead of edges.
	Points bool
	// Unlit ignores scene lights.
	Unlit bool
}

// MaterialOptions configures NewMaterial.
type MaterialOptions struct {
	Color             colorful.Color
	Emissive          colorful.Color
	EmissiveIntensity float64
	Opacity           float64
	Points            bool
	Unlit             bool
}

// NewMaterial allocates a tracked material. A zero Opacity is treated as 1.
func (d *Device) NewMaterial(o MaterialOptions) *Material {
	if o.Opacity == 0 {
		o.Opacity = 1
	}
	return &Material{
		handle:            d.alloc(KindMaterial),
		Color:             o.Color,
		Emissive:          o.Emissive,
		EmissiveIntensity: o.EmissiveIntensity,
		Opacity:           o.Opacity,
		Points:            o.Points,
		Unlit:             o.Unlit,
	}
}

// Texture is an image sampled by normalized coordinates.
type Texture struct {
	handle
	img    image.Image
	bounds image.Rectangle
}

// NewTexture wraps img in a tracked texture.
func (d *Device) NewTexture(img image.Image) *Texture {
	return &Texture{handle: d.alloc(KindTexture), img: img, bounds: img.Bounds()}
}

// Size returns the texture dimensions in pixels.
func (t *Texture) Size() (int, int) { return t.bounds.Dx(), t.bounds.Dy() }

// Sample returns the color at (u, v), both in [0, 1], nearest-neighbour.
func (t *Texture) Sample(u, v float64) colorful.Color {
	w, h := t.bounds.Dx(), t.bounds.Dy()
	if w == 0 || h == 0 {
		return colorful.Color{}
	}
	x := t.bounds.Min.X + min(int(clamp01(u)*float64(w)), w-1)
	y := t.bounds.Min.Y + min(int(clamp01(v)*float64(h)), h-1)
	c, ok := colorful.MakeColor(t.img.At(x, y))
	if !ok {
		return colorful.Color{}
	}
	return c
}

// Target is an offscreen framebuffer owned by a Renderer.
type Target struct {
	handle
	canvas *Canvas
}

func (d *Device) newTarget(cols, rows int) *Target {
	return &Target{handle: d.alloc(KindTarget), canvas: NewCanvas(cols, rows)}
}
