package render

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Braille dot positions (col, row) -> bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// Canvas is a framebuffer of terminal cells, each a 2x4 grid of braille
// dots. Cells can also hold a plain glyph, which wins over dots.
type Canvas struct {
	cols, rows int

	dots  []bool
	color []colorful.Color
	depth []float64

	glyph      []rune
	glyphColor []colorful.Color
}

// NewCanvas allocates a canvas of cols x rows cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.resize(cols, rows)
	return c
}

func (c *Canvas) resize(cols, rows int) {
	c.cols, c.rows = max(cols, 0), max(rows, 0)
	n := c.cols * 2 * c.rows * 4
	c.dots = make([]bool, n)
	c.color = make([]colorful.Color, n)
	c.depth = make([]float64, n)
	c.glyph = make([]rune, c.cols*c.rows)
	c.glyphColor = make([]colorful.Color, c.cols*c.rows)
	c.Clear()
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// DotSize returns the canvas size in braille dots.
func (c *Canvas) DotSize() (w, h int) { return c.cols * 2, c.rows * 4 }

func (c *Canvas) Clear() {
	clear(c.dots)
	clear(c.glyph)
	for i := range c.depth {
		c.depth[i] = math.Inf(1)
	}
}

// Plot sets dot (x, y) regardless of depth.
func (c *Canvas) Plot(x, y int, col colorful.Color) {
	c.PlotDepth(x, y, math.Inf(-1), col)
}

// PlotDepth sets dot (x, y) if nothing nearer has been drawn there.
func (c *Canvas) PlotDepth(x, y int, depth float64, col colorful.Color) {
	w, h := c.DotSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	i := y*w + x
	if c.dots[i] && depth > c.depth[i] {
		return
	}
	c.dots[i] = true
	c.depth[i] = depth
	c.color[i] = col
}

// Line draws a Bresenham line between two dots.
func (c *Canvas) Line(x0, y0, x1, y1 int, col colorful.Color) {
	c.LineDepth(x0, y0, math.Inf(-1), x1, y1, math.Inf(-1), col)
}

// LineDepth draws a line whose depth is interpolated between its ends.
// Ends outside the canvas are clipped to it first.
func (c *Canvas) LineDepth(x0, y0 int, d0 float64, x1, y1 int, d1 float64, col colorful.Color) {
	w, h := c.DotSize()
	if !inside(x0, y0, w, h) || !inside(x1, y1, w, h) {
		fx0, fy0, fx1, fy1 := float64(x0), float64(y0), float64(x1), float64(y1)
		t0, t1, ok := clipLine(fx0, fy0, fx1, fy1, w, h)
		if !ok {
			return
		}
		x0, y0 = int(math.Round(fx0+(fx1-fx0)*t0)), int(math.Round(fy0+(fy1-fy0)*t0))
		x1, y1 = int(math.Round(fx0+(fx1-fx0)*t1)), int(math.Round(fy0+(fy1-fy0)*t1))
		if !math.IsInf(d0, 0) && !math.IsInf(d1, 0) {
			d0, d1 = d0+(d1-d0)*t0, d0+(d1-d0)*t1
		}
	}

	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, dy)
	err := dx - dy
	for i := 0; ; i++ {
		d := d0
		if steps > 0 && !math.IsInf(d0, 0) {
			d = d0 + (d1-d0)*float64(i)/float64(steps)
		}
		c.PlotDepth(x0, y0, d, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func inside(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && x < w && y < h
}

// clipLine trims the segment to [0, w-1] x [0, h-1] (Liang-Barsky) and
// returns the parameters of the visible part along it.
func clipLine(x0, y0, x1, y1 float64, w, h int) (t0, t1 float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	t0, t1 = 0, 1
	dx, dy := x1-x0, y1-y0
	for _, e := range [4][2]float64{
		{-dx, x0},
		{dx, float64(w-1) - x0},
		{-dy, y0},
		{dy, float64(h-1) - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return t0, t1, true
}

// SetCell places a plain glyph at cell (col, row).
func (c *Canvas) SetCell(col, row int, r rune, color colorful.Color) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.glyph[row*c.cols+col] = r
	c.glyphColor[row*c.cols+col] = color
}

// Lit reports how many dots and glyphs are set.
func (c *Canvas) Lit() int {
	n := 0
	for _, d := range c.dots {
		if d {
			n++
		}
	}
	for _, g := range c.glyph {
		if g != 0 && g != ' ' {
			n++
		}
	}
	return n
}

// String renders the canvas as newline-separated rows, colored for profile.
func (c *Canvas) String(profile termenv.Profile) string {
	var sb strings.Builder
	sb.Grow(c.cols * c.rows * 4)
	ansi := newANSIWriter(profile)
	w, _ := c.DotSize()

	for row := range c.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := range c.cols {
			if g := c.glyph[row*c.cols+col]; g != 0 {
				if g != ' ' {
					ansi.set(&sb, c.glyphColor[row*c.cols+col])
				}
				sb.WriteRune(g)
				continue
			}
			var pattern uint
			nearest := math.Inf(1)
			var dom colorful.Color
			for dx := range 2 {
				for dy := range 4 {
					i := (row*4+dy)*w + col*2 + dx
					if !c.dots[i] {
						continue
					}
					pattern |= 1 << brailleBits[dx][dy]
					if c.depth[i] <= nearest {
						nearest = c.depth[i]
						dom = c.color[i]
					}
				}
			}
			if pattern == 0 {
				sb.WriteByte(' ')
				continue
			}
			ansi.set(&sb, dom)
			sb.WriteRune(rune(0x2800 + pattern))
		}
		ansi.reset(&sb)
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
