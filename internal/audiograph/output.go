package audiograph

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
	otoRate    int
	otoChans   int
)

// oto allows one context per process, so the first Output fixes the format.
func initOto(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoRate, otoChans = sampleRate, channels
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoRate != sampleRate || otoChans != channels {
		return nil, fmt.Errorf("audio output already opened at %d Hz/%d ch", otoRate, otoChans)
	}
	return otoCtx, nil
}

// Output plays a Context's destination on the default audio device.
type Output struct {
	ctx    *Context
	player *oto.Player

	mu      sync.Mutex
	scratch []float32
	closed  bool
}

// OpenOutput starts speaker playback of ctx at the given volume.
func OpenOutput(ctx *Context, volume float64) (*Output, error) {
	oc, err := initOto(ctx.SampleRate(), ctx.Channels())
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}
	o := &Output{ctx: ctx}
	o.player = oc.NewPlayer(o)
	o.player.SetVolume(volume)
	o.player.Play()
	return o, nil
}

// Read renders the graph into signed 16-bit little-endian PCM. It is called
// by oto's playback goroutine.
func (o *Output) Read(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	samples := len(p) / 2
	samples -= samples % o.ctx.Channels()
	if samples == 0 {
		return 0, nil
	}
	if cap(o.scratch) < samples {
		o.scratch = make([]float32, samples)
	}
	buf := o.scratch[:samples]
	o.ctx.Render(buf)
	encodePCM16(p, buf)
	return samples * 2, nil
}

func encodePCM16(dst []byte, src []float32) {
	for i, s := range src {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(v*32767)))
	}
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (o *Output) SetVolume(v float64) {
	o.player.SetVolume(math.Max(0, math.Min(1, v)))
}

// Volume returns the playback volume.
func (o *Output) Volume() float64 {
	return o.player.Volume()
}

// Close stops playback. Idempotent.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.player.Pause()
	return o.player.Close()
}
