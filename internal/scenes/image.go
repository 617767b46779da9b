package scenes

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/log"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

var ErrNoImage = errors.New("no image configured")

// pulsingImage shows a picture that swells with the bass. The file is
// decoded off the frame loop; a ring stands in for it until then.
type pulsingImage struct {
	path  string
	stage *visual.Stage

	placeholder *render.Mesh
	texture     *render.Texture
	time        float64

	mu      sync.Mutex
	active  bool
	pending image.Image
	loadErr error
	loaded  chan struct{}
}

// NewPulsingImage returns a PulsingImage factory for the image at path.
func NewPulsingImage(path string) visual.Factory {
	return func(c *render.Container) visual.Plugin {
		return &pulsingImage{
			path:   path,
			stage:  visual.NewStage(c),
			loaded: make(chan struct{}),
		}
	}
}

func (p *pulsingImage) Initialize() error {
	if p.path == "" {
		return ErrNoImage
	}
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("image asset: %w", err)
	}
	if err := p.stage.Open(75, 0.1, 1000); err != nil {
		return err
	}
	p.stage.Camera.Position = render.V(0, 0, 50)
	p.placeholder = p.stage.AddMesh(render.Circle(15, 48), render.MaterialOptions{
		Color: colorful.Color{R: 0.5, G: 0.5, B: 0.5},
		Unlit: true,
	})

	p.mu.Lock()
	p.active = true
	p.mu.Unlock()
	go p.load()
	return nil
}

func (p *pulsingImage) load() {
	defer close(p.loaded)
	img, err := decodeImage(p.path)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		log.Debugf("scenes: dropping image %s decoded after dispose", p.path)
		return
	}
	p.pending, p.loadErr = img, err
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func (p *pulsingImage) Update(snap analyzer.Snapshot) error {
	p.time += 0.01

	p.mu.Lock()
	img, err := p.pending, p.loadErr
	p.pending, p.loadErr = nil, nil
	p.mu.Unlock()

	if err != nil {
		// Keep the placeholder; the error surfaces once.
		return err
	}
	if img != nil && p.texture == nil {
		p.texture = p.stage.Device().NewTexture(img)
		p.stage.Track(p.texture)
		p.placeholder.Visible = false
	}

	if p.texture == nil {
		pulse := 1 + snap.Bass()*0.5
		p.placeholder.Scale = render.V(pulse, pulse, 1)
		p.placeholder.Rotation.Z += 0.02
		p.stage.Render()
		return nil
	}
	p.drawTexture(snap)
	return nil
}

// drawTexture maps the texture onto the canvas, scaled by bass around the
// center and brightened by treble. Dots darker than a threshold stay off.
func (p *pulsingImage) drawTexture(snap analyzer.Snapshot) {
	cv := p.stage.Renderer.Canvas()
	cv.Clear()
	w, h := cv.DotSize()
	tw, th := p.texture.Size()
	if w == 0 || h == 0 || tw == 0 || th == 0 {
		p.stage.Renderer.Present()
		return
	}

	// Fit the image inside the canvas keeping its aspect ratio.
	fit := math.Min(float64(w)/float64(tw), float64(h)/float64(th))
	scale := fit * (0.8 + snap.Bass()*0.3 + math.Sin(p.time)*0.02)
	boost := 1 + snap.Treble()*0.5
	cx, cy := float64(w)/2, float64(h)/2

	for y := range h {
		v := (float64(y)-cy)/(scale*float64(th)) + 0.5
		if v < 0 || v >= 1 {
			continue
		}
		for x := range w {
			u := (float64(x)-cx)/(scale*float64(tw)) + 0.5
			if u < 0 || u >= 1 {
				continue
			}
			c := p.texture.Sample(u, v)
			_, _, l := c.Hsl()
			if l < 0.25 {
				continue
			}
			cv.Plot(x, y, colorful.Color{R: c.R * boost, G: c.G * boost, B: c.B * boost}.Clamped())
		}
	}
	p.stage.Renderer.Present()
}

func (p *pulsingImage) Resize(cols, rows int) error { return p.stage.Resize(cols, rows) }

func (p *pulsingImage) Dispose() {
	p.mu.Lock()
	p.active = false
	p.pending = nil
	p.mu.Unlock()
	p.texture = nil
	p.placeholder = nil
	p.stage.Close()
}
