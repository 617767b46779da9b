package scenes

import (
	"math"

	"github.com/olivier-w/climpviz/internal/analyzer"
)

// logBands groups a linear snapshot into len(dst) logarithmically spaced
// bands, each the mean level (0..1) of the bins it covers. Bin 0 (DC) is
// skipped.
func logBands(snap analyzer.Snapshot, dst []float64) []float64 {
	n := len(dst)
	maxBin := len(snap)
	if maxBin < 2 {
		clear(dst)
		return dst
	}
	for b := range n {
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(n)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(n)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin {
			hi = maxBin
		}
		dst[b] = snap.Average(lo, hi)
	}
	return dst
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
