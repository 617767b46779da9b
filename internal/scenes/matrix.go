package scenes

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/visual"
)

const (
	matrixBands    = 16
	matrixTrailLen = 8
)

var (
	matrixHead = colorful.Color{R: 0.85, G: 1, B: 0.85}
	matrixTail = colorful.Color{R: 0, G: 0.55, B: 0.2}
)

// matrix is digital rain. Each column follows one log band: louder bands
// start drops more often and make them fall faster.
type matrix struct {
	stage   *visual.Stage
	rng     *rand.Rand
	bands   []float64
	columns []matrixCol
}

type matrixCol struct {
	active bool
	headY  float64 // fractional row of the falling head
	speed  float64
	chars  []rune
}

// NewMatrix returns a Matrix factory.
func NewMatrix(seed uint64) visual.Factory {
	return func(c *render.Container) visual.Plugin {
		return &matrix{
			stage: visual.NewStage(c),
			rng:   rand.New(rand.NewPCG(seed, 0x3a7)),
			bands: make([]float64, matrixBands),
		}
	}
}

func (m *matrix) Initialize() error {
	return m.stage.Open(75, 0.1, 1000)
}

func (m *matrix) randomChar() rune {
	n := m.rng.IntN(36)
	if n < 10 {
		return rune('0' + n)
	}
	return rune('A' + n - 10)
}

func (m *matrix) Update(snap analyzer.Snapshot) error {
	logBands(snap, m.bands)

	cv := m.stage.Renderer.Canvas()
	cols, height := cv.Size()
	if len(m.columns) != cols {
		m.columns = make([]matrixCol, cols)
		for i := range m.columns {
			m.columns[i].chars = make([]rune, matrixTrailLen)
			for j := range m.columns[i].chars {
				m.columns[i].chars[j] = m.randomChar()
			}
		}
	}

	for c := range m.columns {
		level := m.bands[min(c*matrixBands/max(cols, 1), matrixBands-1)]
		col := &m.columns[c]
		if !col.active {
			if m.rng.Float64() < level*0.15 {
				col.active = true
				col.headY = 0
				col.speed = 0.3 + level*1.2
				for j := range col.chars {
					col.chars[j] = m.randomChar()
				}
			}
			continue
		}
		col.headY += col.speed
		col.chars[0] = m.randomChar()
		if int(col.headY)-matrixTrailLen > height {
			col.active = false
		}
	}

	cv.Clear()
	for c, col := range m.columns {
		if !col.active {
			continue
		}
		head := int(col.headY)
		for t := range matrixTrailLen {
			row := head - t
			if row < 0 || row >= height {
				continue
			}
			shade := matrixHead.BlendLab(matrixTail, float64(t)/matrixTrailLen).Clamped()
			cv.SetCell(c, row, col.chars[t], shade)
		}
	}
	m.stage.Renderer.Present()
	return nil
}

func (m *matrix) Resize(cols, rows int) error { return m.stage.Resize(cols, rows) }

func (m *matrix) Dispose() { m.stage.Close() }
