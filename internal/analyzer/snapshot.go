package analyzer

// Snapshot is one frame of band magnitudes in 0..255, lowest frequency first.
// It aliases the analyzer's buffer and is only valid during the frame it was
// read in.
type Snapshot []uint8

// Band returns band i, wrapping indexes outside the snapshot so callers that
// assume a different band count stay in range. An empty snapshot yields 0.
func (s Snapshot) Band(i int) uint8 {
	if len(s) == 0 {
		return 0
	}
	i %= len(s)
	if i < 0 {
		i += len(s)
	}
	return s[i]
}

// Level returns Band(i) scaled to 0..1.
func (s Snapshot) Level(i int) float64 {
	return float64(s.Band(i)) / 255
}

// Average returns the mean level (0..1) of bands [lo, hi), clamped to the
// snapshot.
func (s Snapshot) Average(lo, hi int) float64 {
	lo = max(lo, 0)
	hi = min(hi, len(s))
	if hi <= lo {
		return 0
	}
	sum := 0
	for _, v := range s[lo:hi] {
		sum += int(v)
	}
	return float64(sum) / float64(hi-lo) / 255
}

// Bass is the mean level of the lowest four bands.
func (s Snapshot) Bass() float64 { return s.Average(0, 4) }

// Treble is the mean level of the highest four bands.
func (s Snapshot) Treble() float64 { return s.Average(len(s)-4, len(s)) }

// Resample linearly interpolates the snapshot onto n points in 0..1, writing
// into dst when it has room.
func (s Snapshot) Resample(dst []float64, n int) []float64 {
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	switch {
	case n == 0:
		return dst
	case len(s) == 0:
		clear(dst)
		return dst
	case n == 1 || len(s) == 1:
		for i := range dst {
			dst[i] = s.Level(0)
		}
		return dst
	}
	ratio := float64(len(s)-1) / float64(n-1)
	for i := range dst {
		pos := float64(i) * ratio
		lo := int(pos)
		if lo >= len(s)-1 {
			dst[i] = s.Level(len(s) - 1)
			continue
		}
		t := pos - float64(lo)
		dst[i] = s.Level(lo)*(1-t) + s.Level(lo+1)*t
	}
	return dst
}
