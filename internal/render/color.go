package render

import (
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

var (
	profileOnce sync.Once
	profile     termenv.Profile
	seqCache    sync.Map
)

// DetectProfile returns the color profile of the controlling terminal,
// honoring NO_COLOR and friends. It is evaluated once.
func DetectProfile() termenv.Profile {
	profileOnce.Do(func() {
		profile = termenv.EnvColorProfile()
	})
	return profile
}

// ansiWriter emits SGR sequences only when the color changes.
type ansiWriter struct {
	profile termenv.Profile
	current uint32
}

func newANSIWriter(p termenv.Profile) ansiWriter {
	return ansiWriter{profile: p, current: ^uint32(0)}
}

func (w *ansiWriter) set(sb *strings.Builder, c colorful.Color) {
	if w.profile == termenv.Ascii {
		return
	}
	r, g, b := c.Clamped().RGB255()
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if key == w.current {
		return
	}
	sb.WriteString(colorSequence(w.profile, key, c))
	w.current = key
}

func (w *ansiWriter) reset(sb *strings.Builder) {
	if w.profile == termenv.Ascii || w.current == ^uint32(0) {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	w.current = ^uint32(0)
}

func colorSequence(p termenv.Profile, rgb uint32, c colorful.Color) string {
	key := uint32(p)<<24 | rgb
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}
	var seq string
	if s := p.FromColor(c.Clamped()).Sequence(false); s != "" {
		seq = termenv.CSI + s + "m"
	}
	seqCache.Store(key, seq)
	return seq
}

var (
	heatStops = []colorful.Color{
		{R: 16 / 255.0, G: 25 / 255.0, B: 70 / 255.0},
		{R: 0, G: 174 / 255.0, B: 1},
		{R: 20 / 255.0, G: 1, B: 161 / 255.0},
		{R: 1, G: 230 / 255.0, B: 92 / 255.0},
		{R: 1, G: 80 / 255.0, B: 60 / 255.0},
	}
	// Fade is the color old content decays toward.
	Fade = colorful.Color{R: 18 / 255.0, G: 22 / 255.0, B: 32 / 255.0}
)

// HeatColor maps t in [0, 1] from deep blue through green to red.
func HeatColor(t float64) colorful.Color {
	t = clamp01(t) * float64(len(heatStops)-1)
	i := min(int(t), len(heatStops)-2)
	return heatStops[i].BlendRgb(heatStops[i+1], t-float64(i))
}

// Scheme maps an audio level to a hue.
type Scheme uint8

const (
	Rainbow Scheme = iota
	Heatmap
	Electric
	Pastel
)

var schemeNames = []string{"rainbow", "heatmap", "electric", "pastel"}

func (s Scheme) String() string {
	if int(s) < len(schemeNames) {
		return schemeNames[s]
	}
	return "unknown"
}

// ParseScheme looks up a scheme by name.
func ParseScheme(name string) (Scheme, bool) {
	for i, n := range schemeNames {
		if strings.EqualFold(n, name) {
			return Scheme(i), true
		}
	}
	return Rainbow, false
}

// Hue returns a hue in [0, 1) for level t in [0, 1].
func (s Scheme) Hue(t float64) float64 {
	t = clamp01(t)
	switch s {
	case Heatmap:
		return 0.6 - t*0.6
	case Electric:
		return 0.6 + t*0.2
	case Pastel:
		return 0.75 + t*0.1
	default:
		if t >= 1 {
			return 0
		}
		return t
	}
}

// HSL builds a color from hue, saturation and lightness all in [0, 1].
func HSL(h, s, l float64) colorful.Color {
	return colorful.Hsl(h*360, clamp01(s), clamp01(l))
}
