package scenes

import (
	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

const spectrumBands = 16

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// spectrum draws log-spaced bands as vertical block bars.
type spectrum struct {
	stage  *visual.Stage
	smooth springField
	bands  []float64
}

// NewSpectrum returns a Spectrum factory. fps tunes the bar springs.
func NewSpectrum(fps int) visual.Factory {
	return func(c *render.Container) visual.Plugin {
		return &spectrum{
			stage:  visual.NewStage(c),
			smooth: newSpringField(fps, 8.5, 0.72),
			bands:  make([]float64, spectrumBands),
		}
	}
}

func (s *spectrum) Initialize() error {
	if err := s.stage.Open(75, 0.1, 1000); err != nil {
		return err
	}
	s.smooth.resize(spectrumBands)
	return nil
}

func (s *spectrum) Update(snap analyzer.Snapshot) error {
	logBands(snap, s.bands)

	cv := s.stage.Renderer.Canvas()
	cv.Clear()
	width, height := cv.Size()

	colWidth := max(width/spectrumBands, 1)
	gap := 1
	if colWidth <= 1 {
		gap = 0
	}

	for b := range spectrumBands {
		level := clamp01(s.smooth.step(b, s.bands[b])) * float64(height)
		x0 := b * colWidth
		for row := range height {
			rowFromBottom := float64(height - 1 - row)
			idx := 0
			if level > rowFromBottom+1 {
				idx = len(barChars) - 1
			} else if level > rowFromBottom {
				idx = int((level - rowFromBottom) * float64(len(barChars)-1))
			}
			if idx == 0 {
				continue
			}
			col := render.HeatColor(rowFromBottom / float64(max(height-1, 1)))
			for x := x0; x < x0+colWidth-gap; x++ {
				cv.SetCell(x, row, barChars[idx], col)
			}
		}
	}
	s.stage.Renderer.Present()
	return nil
}

func (s *spectrum) Resize(cols, rows int) error { return s.stage.Resize(cols, rows) }

func (s *spectrum) Dispose() { s.stage.Close() }
