package scenes

import (
	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

var waterfallChars = []rune{' ', '.', ':', '-', '=', '+', '*', '#', '%', '@'}

// waterfall is a scrolling spectrogram: the newest line on top, older lines
// fading toward the background as they sink.
type waterfall struct {
	stage   *visual.Stage
	smooth  springField
	history [][]float64
	line    []float64
}

// NewWaterfall returns a Waterfall factory.
func NewWaterfall(fps int) visual.Factory {
	return func(c *render.Container) visual.Plugin {
		return &waterfall{
			stage:  visual.NewStage(c),
			smooth: newSpringField(fps, 8.5, 0.72),
		}
	}
}

func (w *waterfall) Initialize() error {
	return w.stage.Open(75, 0.1, 1000)
}

func (w *waterfall) Update(snap analyzer.Snapshot) error {
	cv := w.stage.Renderer.Canvas()
	cols, height := cv.Size()

	w.smooth.resize(cols)
	w.line = snap.Resample(w.line, cols)
	for c := range cols {
		w.line[c] = clamp01(w.smooth.step(c, w.line[c]))
	}

	if len(w.history) != height || (height > 0 && len(w.history[0]) != cols) {
		w.history = make([][]float64, height)
		for r := range height {
			w.history[r] = make([]float64, cols)
		}
	}
	for r := height - 1; r > 0; r-- {
		copy(w.history[r], w.history[r-1])
	}
	if height > 0 {
		copy(w.history[0], w.line)
	}

	cv.Clear()
	for r := range height {
		age := float64(r) / float64(height)
		for c := range cols {
			v := w.history[r][c]
			idx := min(int(v*float64(len(waterfallChars)-1)), len(waterfallChars)-1)
			ch := waterfallChars[idx]
			if ch == ' ' {
				continue
			}
			col := render.HeatColor(v).BlendRgb(render.Fade, age*0.65)
			cv.SetCell(c, r, ch, col)
		}
	}
	w.stage.Renderer.Present()
	return nil
}

func (w *waterfall) Resize(cols, rows int) error { return w.stage.Resize(cols, rows) }

func (w *waterfall) Dispose() { w.stage.Close() }
