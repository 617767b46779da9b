package visual

import (
	"fmt"
	"slices"

	"github.com/olivier-w/climpviz/internal/render"
)

// Stage owns the scene, camera and renderer of one plugin together with the
// resources it allocates. Plugins embed or hold a Stage and call it from
// their own lifecycle methods.
type Stage struct {
	Scene    *render.Scene
	Camera   *render.Camera
	Renderer *render.Renderer

	container *render.Container
	tracked   []render.Resource
	closed    bool
}

// NewStage prepares a stage for container. Nothing is allocated until Open.
func NewStage(container *render.Container) *Stage {
	return &Stage{container: container, Scene: render.NewScene()}
}

// Container returns the element the stage draws into.
func (s *Stage) Container() *render.Container { return s.container }

// Device returns the container's resource allocator.
func (s *Stage) Device() *render.Device { return s.container.Device() }

// Open creates the renderer at the container's size, a perspective camera
// and attaches the renderer's surface.
func (s *Stage) Open(fov, near, far float64) error {
	if s.closed {
		return fmt.Errorf("stage reused after close")
	}
	if s.Renderer != nil {
		return nil
	}
	cols, rows := s.container.Size()
	r, err := render.NewRenderer(s.Device(), cols, rows, s.container.Profile())
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	if err := s.container.Attach(r.Surface()); err != nil {
		r.Release()
		return fmt.Errorf("attaching surface: %w", err)
	}
	s.Renderer = r
	s.Camera = render.NewCamera(fov, r.Aspect(), near, far)
	return nil
}

// Track registers r to be released by Close.
func (s *Stage) Track(r render.Resource) {
	s.tracked = append(s.tracked, r)
}

// Drop releases r now and forgets it.
func (s *Stage) Drop(r render.Resource) {
	if i := slices.Index(s.tracked, r); i >= 0 {
		s.tracked = slices.Delete(s.tracked, i, i+1)
	}
	r.Release()
}

// Tracked is the number of resources awaiting release.
func (s *Stage) Tracked() int { return len(s.tracked) }

// NewGeometry allocates and tracks a geometry.
func (s *Stage) NewGeometry(shape render.Shape) *render.Geometry {
	g := s.Device().NewGeometry(shape)
	s.Track(g)
	return g
}

// NewMaterial allocates and tracks a material.
func (s *Stage) NewMaterial(o render.MaterialOptions) *render.Material {
	m := s.Device().NewMaterial(o)
	s.Track(m)
	return m
}

// AddMesh builds a mesh from tracked resources and adds it to the scene.
func (s *Stage) AddMesh(shape render.Shape, o render.MaterialOptions) *render.Mesh {
	m := render.NewMesh(s.NewGeometry(shape), s.NewMaterial(o))
	s.Scene.Add(m)
	return m
}

// Render draws the scene through the camera and presents it.
func (s *Stage) Render() {
	if s.Renderer == nil || s.closed {
		return
	}
	s.Renderer.Render(s.Scene, s.Camera)
}

// Resize matches camera and renderer to a new container size. On failure
// the previous size stays in effect.
func (s *Stage) Resize(cols, rows int) error {
	if s.Renderer == nil || s.closed {
		return nil
	}
	if err := s.Renderer.SetSize(cols, rows); err != nil {
		return err
	}
	s.Camera.SetAspect(s.Renderer.Aspect())
	return nil
}

// Close releases tracked resources newest first, then the renderer, and
// detaches the surface. It works on a stage that was never fully opened and
// is a no-op the second time.
func (s *Stage) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.tracked) - 1; i >= 0; i-- {
		s.tracked[i].Release()
	}
	s.tracked = nil
	s.Scene.Clear()
	if s.Renderer != nil {
		s.container.Detach(s.Renderer.Surface())
		s.Renderer.Release()
	}
}
