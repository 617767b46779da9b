package render

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
	"gonum.org/v1/gonum/spatial/r3"
)

var white = colorful.Color{R: 1, G: 1, B: 1}

func TestDeviceTracksReleasesOnce(t *testing.T) {
	dev := NewDevice()
	g := dev.NewGeometry(Circle(1, 8))
	m := dev.NewMaterial(MaterialOptions{Color: white})

	g.Release()
	g.Release()
	m.Release()

	st := dev.Stats()
	if st.TotalAllocated() != 2 || st.TotalReleased() != 2 {
		t.Fatalf("expected 2 allocated and 2 released, got %d/%d", st.TotalAllocated(), st.TotalReleased())
	}
	if st.Live() != 0 {
		t.Fatalf("expected nothing live, got %d", st.Live())
	}
	if !g.Released() {
		t.Fatal("expected geometry to report released")
	}
}

func TestGeometryResetRestoresBase(t *testing.T) {
	dev := NewDevice()
	g := dev.NewGeometry(Sphere(10, 8, 6))
	g.Vertices[0] = r3.Scale(3, g.Vertices[0])
	g.Reset()
	if g.Vertices[0] != g.Base[0] {
		t.Fatalf("expected vertex restored to %v, got %v", g.Base[0], g.Vertices[0])
	}
}

func TestTransformScalesRotatesThenMoves(t *testing.T) {
	tr := Transform{
		Position: V(10, 0, 0),
		Rotation: V(0, 0, math.Pi/2),
		Scale:    V(2, 1, 1),
	}
	got := tr.Apply(V(1, 0, 0))
	want := V(10, 2, 0)
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if u := Unit(Vec3{}); u != (Vec3{}) {
		t.Fatalf("expected zero vector to stay zero, got %v", u)
	}
}

func TestSphereEdgesReferenceValidVertices(t *testing.T) {
	for _, s := range []Shape{Sphere(5, 12, 8), TorusKnot(10, 2, 32, 6, 2, 3), Circle(3, 16), Quad(2)} {
		for _, e := range s.Edges {
			if e[0] < 0 || e[1] < 0 || e[0] >= len(s.Vertices) || e[1] >= len(s.Vertices) {
				t.Fatalf("edge %v out of range for %d vertices", e, len(s.Vertices))
			}
		}
	}
}

func TestCameraProjectsCenterToOrigin(t *testing.T) {
	cam := NewCamera(75, 1, 0.1, 1000)
	cam.Position = V(0, 0, 100)
	cam.LookAt(V(0, 0, 0))

	x, y, d, ok := cam.Project(V(0, 0, 0))
	if !ok {
		t.Fatal("expected origin to be visible")
	}
	if x != 0 || y != 0 {
		t.Fatalf("expected origin at (0,0), got (%v,%v)", x, y)
	}
	if d != 100 {
		t.Fatalf("expected depth 100, got %v", d)
	}
	if _, _, _, ok := cam.Project(V(0, 0, 200)); ok {
		t.Fatal("expected point behind camera to be culled")
	}
	if x, _, _, _ := cam.Project(V(10, 0, 0)); x <= 0 {
		t.Fatalf("expected +X to project right of center, got %v", x)
	}
}

func TestCanvasLineAndString(t *testing.T) {
	cv := NewCanvas(2, 1)
	cv.Line(0, 0, 3, 0, white)

	out := cv.String(termenv.Ascii)
	// Top dot row in both cells: bits 0 and 3.
	want := string([]rune{0x2809, 0x2809})
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
	if cv.Lit() != 4 {
		t.Fatalf("expected 4 lit dots, got %d", cv.Lit())
	}
}

func TestCanvasClipsLongLines(t *testing.T) {
	cv := NewCanvas(2, 1)
	cv.Line(-10000, 0, 3, 0, white)
	if cv.Lit() != 4 {
		t.Fatalf("expected the visible part of a long line drawn, got %d dots", cv.Lit())
	}

	cv.Clear()
	cv.Line(-20000, 1, 20000, 1, white)
	if cv.Lit() != 4 {
		t.Fatalf("expected a line crossing the canvas drawn across it, got %d dots", cv.Lit())
	}

	cv.Clear()
	cv.Line(-50, -50, -1, 90, white)
	if cv.Lit() != 0 {
		t.Fatalf("expected an off-canvas line to draw nothing, got %d dots", cv.Lit())
	}
}

func TestCanvasGlyphAndColor(t *testing.T) {
	cv := NewCanvas(3, 2)
	cv.SetCell(1, 1, '#', HeatColor(1))
	out := cv.String(termenv.TrueColor)
	if !strings.Contains(out, "#") {
		t.Fatalf("expected glyph in output, got %q", out)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected color sequence in truecolor output, got %q", out)
	}
	if lines := strings.Split(out, "\n"); len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}

	plain := cv.String(termenv.Ascii)
	if strings.Contains(plain, "\x1b") {
		t.Fatalf("expected no escapes for ascii profile, got %q", plain)
	}
}

func TestPlotDepthKeepsNearest(t *testing.T) {
	cv := NewCanvas(1, 1)
	red := colorful.Color{R: 1}
	blue := colorful.Color{B: 1}
	cv.PlotDepth(0, 0, 5, red)
	cv.PlotDepth(0, 0, 10, blue)
	if cv.color[0] != red {
		t.Fatalf("expected nearer dot to win, got %v", cv.color[0])
	}
	cv.PlotDepth(0, 0, 1, blue)
	if cv.color[0] != blue {
		t.Fatalf("expected closer dot to replace, got %v", cv.color[0])
	}
}

func TestRendererDrawsMeshAndPresents(t *testing.T) {
	dev := NewDevice()
	r, err := NewRenderer(dev, 20, 10, termenv.Ascii)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	scene := NewScene()
	g := dev.NewGeometry(Sphere(30, 12, 8))
	m := dev.NewMaterial(MaterialOptions{Color: white})
	scene.Add(NewMesh(g, m))

	cam := NewCamera(75, r.Aspect(), 0.1, 1000)
	cam.Position = V(0, 0, 100)
	r.Render(scene, cam)

	if r.Canvas().Lit() == 0 {
		t.Fatal("expected sphere to light some dots")
	}
	if r.Surface().Frames() != 1 {
		t.Fatalf("expected one presented frame, got %d", r.Surface().Frames())
	}
	if strings.TrimSpace(r.Surface().Frame()) == "" {
		t.Fatal("expected non-blank frame")
	}
}

func TestRendererSetSize(t *testing.T) {
	dev := NewDevice()
	r, _ := NewRenderer(dev, 10, 5, termenv.Ascii)

	if err := r.SetSize(0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if c, rr := r.Canvas().Size(); c != 10 || rr != 5 {
		t.Fatalf("expected size unchanged after failed resize, got %dx%d", c, rr)
	}
	if err := r.SetSize(30, 12); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if c, rr := r.Surface().Size(); c != 30 || rr != 12 {
		t.Fatalf("expected surface 30x12, got %dx%d", c, rr)
	}

	r.Release()
	r.Release()
	if live := dev.Stats().Live(); live != 0 {
		t.Fatalf("expected all targets released, got %d live", live)
	}
}

func TestContainerAttachDetach(t *testing.T) {
	c := NewContainer(NewDevice(), 4, 2)
	a, b := &Surface{}, &Surface{}

	if err := c.Attach(a); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := c.Attach(a); err != nil {
		t.Fatalf("expected re-attach of same surface to succeed, got %v", err)
	}
	if err := c.Attach(b); !errors.Is(err, ErrSurfaceAttached) {
		t.Fatalf("expected ErrSurfaceAttached, got %v", err)
	}
	if c.Detach(b) {
		t.Fatal("expected detach of foreign surface to report false")
	}
	if !c.Detach(a) || !c.Empty() {
		t.Fatal("expected container empty after detach")
	}
	if got := c.View(); got != "    \n    " {
		t.Fatalf("expected blank 4x2 view, got %q", got)
	}
}

func TestContainerReset(t *testing.T) {
	c := NewContainer(NewDevice(), 4, 2)
	if c.Reset() {
		t.Fatal("expected reset of empty container to report false")
	}
	if err := c.Attach(&Surface{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if !c.Reset() || !c.Empty() {
		t.Fatal("expected reset to drop the attached surface")
	}
	if err := c.Attach(&Surface{}); err != nil {
		t.Fatalf("expected attach after reset to succeed, got %v", err)
	}
}

func TestTextureSample(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	tex := NewDevice().NewTexture(img)
	if c := tex.Sample(0, 0); c.R != 1 || c.B != 0 {
		t.Fatalf("expected red at left, got %v", c)
	}
	if c := tex.Sample(1, 1); c.B != 1 {
		t.Fatalf("expected blue at right edge, got %v", c)
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in   string
		want Scheme
		ok   bool
	}{
		{"rainbow", Rainbow, true},
		{"HeatMap", Heatmap, true},
		{"pastel", Pastel, true},
		{"neon", Rainbow, false},
	}
	for _, tt := range tests {
		got, ok := ParseScheme(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseScheme(%q) = %v, %v; expected %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if h := Heatmap.Hue(1); h != 0 {
		t.Fatalf("expected heatmap hue 0 at full level, got %v", h)
	}
}
