package render

import (
	"errors"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

var ErrSurfaceAttached = errors.New("container already holds a surface")

// Surface holds the last frame a renderer presented. Frames are read by the
// UI goroutine while the frame loop writes them.
type Surface struct {
	mu     sync.Mutex
	cols   int
	rows   int
	frame  string
	frames uint64
}

func (s *Surface) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Frame returns the most recently presented frame.
func (s *Surface) Frame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Frames counts presentations.
func (s *Surface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Surface) present(frame string) {
	s.mu.Lock()
	s.frame = frame
	s.frames++
	s.mu.Unlock()
}

func (s *Surface) setSize(cols, rows int) {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
}

// Container is the screen region a visualization draws into. It holds at
// most one surface; its size and placement belong to the caller.
type Container struct {
	dev *Device

	mu      sync.Mutex
	cols    int
	rows    int
	profile termenv.Profile
	surface *Surface
}

// NewContainer returns an empty container. Colors are off until SetProfile.
func NewContainer(dev *Device, cols, rows int) *Container {
	return &Container{dev: dev, cols: cols, rows: rows, profile: termenv.Ascii}
}

// Device is the resource allocator shared by everything drawn here.
func (c *Container) Device() *Device { return c.dev }

func (c *Container) Profile() termenv.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Container) SetProfile(p termenv.Profile) {
	c.mu.Lock()
	c.profile = p
	c.mu.Unlock()
}

func (c *Container) Size() (cols, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cols, c.rows
}

func (c *Container) SetSize(cols, rows int) {
	c.mu.Lock()
	c.cols, c.rows = cols, rows
	c.mu.Unlock()
}

// Attach places s in the container. Attaching the surface already present
// is a no-op; attaching a second one fails.
func (c *Container) Attach(s *Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.surface {
	case nil:
		c.surface = s
		return nil
	case s:
		return nil
	default:
		return ErrSurfaceAttached
	}
}

// Detach removes s and reports whether it was attached.
func (c *Container) Detach(s *Surface) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil || c.surface != s {
		return false
	}
	c.surface = nil
	return true
}

// Reset detaches whatever surface is attached and reports whether there
// was one.
func (c *Container) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.surface != nil
	c.surface = nil
	return had
}

// Contains reports whether s is the attached surface.
func (c *Container) Contains(s *Surface) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return s != nil && c.surface == s
}

// Empty reports whether no surface is attached.
func (c *Container) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface == nil
}

// View returns the attached surface's last frame, or a blank region.
func (c *Container) View() string {
	c.mu.Lock()
	s := c.surface
	cols, rows := c.cols, c.rows
	c.mu.Unlock()

	if s != nil {
		if f := s.Frame(); f != "" {
			return f
		}
	}
	if cols <= 0 || rows <= 0 {
		return ""
	}
	line := strings.Repeat(" ", cols)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
