package player

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/olivier-w/climpviz/internal/audiograph"
	"github.com/olivier-w/climpviz/internal/media"
)

// stubDecoder serves fixed samples, at most chunk per call when chunk > 0.
type stubDecoder struct {
	samples  []float32
	rate     int
	channels int
	chunk    int
	tailErr  error
}

func (d *stubDecoder) ReadSamples(dst []float32) (int, error) {
	if len(d.samples) == 0 {
		if d.tailErr != nil {
			return 0, d.tailErr
		}
		return 0, io.EOF
	}
	if d.chunk > 0 && len(dst) > d.chunk {
		dst = dst[:d.chunk]
	}
	n := copy(dst, d.samples)
	d.samples = d.samples[n:]
	return n, nil
}

func (d *stubDecoder) SampleRate() int { return d.rate }
func (d *stubDecoder) Channels() int   { return d.channels }
func (d *stubDecoder) Frames() int64   { return int64(len(d.samples) / d.channels) }

func readAll(t *testing.T, s *normalizedStream) []float32 {
	t.Helper()
	var out []float32
	buf := make([]float32, 5*s.outChannels)
	for range 1000 {
		n, err := s.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples: %v", err)
		}
	}
	t.Fatal("stream never ended")
	return nil
}

func expectSamples(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v (all %v)", i, want[i], got[i], got)
		}
	}
}

func TestNormalizedStreamUpsamplesLinearly(t *testing.T) {
	src := &stubDecoder{samples: []float32{0, 0.5, 1}, rate: 4000, channels: 1}
	s, err := newNormalizedStream(src, 8000, 1)
	if err != nil {
		t.Fatalf("newNormalizedStream: %v", err)
	}
	if s.Frames() != 6 {
		t.Fatalf("expected 6 output frames, got %d", s.Frames())
	}
	expectSamples(t, readAll(t, s), []float32{0, 0.25, 0.5, 0.75, 1, 1})
	if s.Played() != 6 {
		t.Fatalf("expected 6 played frames, got %d", s.Played())
	}
}

func TestNormalizedStreamDownsamples(t *testing.T) {
	src := &stubDecoder{samples: []float32{0, 0.125, 0.25, 0.375, 0.5}, rate: 8000, channels: 1}
	s, _ := newNormalizedStream(src, 4000, 1)
	expectSamples(t, readAll(t, s), []float32{0, 0.25, 0.5})
}

func TestNormalizedStreamMixesChannels(t *testing.T) {
	down, _ := newNormalizedStream(&stubDecoder{samples: []float32{0.25, 0.75, -1, 1}, rate: 8000, channels: 2}, 8000, 1)
	expectSamples(t, readAll(t, down), []float32{0.5, 0})

	up, _ := newNormalizedStream(&stubDecoder{samples: []float32{0.5, -0.5}, rate: 8000, channels: 1}, 8000, 2)
	expectSamples(t, readAll(t, up), []float32{0.5, 0.5, -0.5, -0.5})
}

func TestNormalizedStreamRealignsPartialReads(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	src := &stubDecoder{samples: append([]float32(nil), samples...), rate: 4000, channels: 2, chunk: 3}
	s, _ := newNormalizedStream(src, 8000, 2)
	got := readAll(t, s)
	// Every even output frame is a source frame verbatim.
	for i := range 4 {
		if got[i*4] != samples[i*2] || got[i*4+1] != samples[i*2+1] {
			t.Fatalf("frame %d: expected %v,%v, got %v,%v", i, samples[i*2], samples[i*2+1], got[i*4], got[i*4+1])
		}
	}
}

func TestNormalizedStreamReportsDecodeErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &stubDecoder{samples: []float32{0.5, 0.5}, rate: 4000, channels: 1, tailErr: boom}
	s, _ := newNormalizedStream(src, 8000, 1)

	buf := make([]float32, 16)
	n, err := s.ReadSamples(buf)
	if err != nil || n != 4 {
		t.Fatalf("expected 4 samples before the error, got %d, %v", n, err)
	}
	if _, err := s.ReadSamples(buf); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped decode error, got %v", err)
	}
}

func TestNormalizedStreamRejectsBadFormats(t *testing.T) {
	if _, err := newNormalizedStream(&stubDecoder{rate: 0, channels: 1}, 8000, 1); err == nil {
		t.Fatal("expected error for zero source rate")
	}
	if _, err := newNormalizedStream(&stubDecoder{rate: 8000, channels: 1}, 8000, 0); err == nil {
		t.Fatal("expected error for zero output channels")
	}
}

// writeWAV encodes data as a PCM WAV file and returns its path.
func writeWAV(t *testing.T, name string, rate, bitDepth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}
	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}
	return path
}

func newContext(t *testing.T, rate, channels int) *audiograph.Context {
	t.Helper()
	ctx, err := audiograph.New(audiograph.Options{SampleRate: rate, Channels: channels})
	if err != nil {
		t.Fatalf("audiograph.New: %v", err)
	}
	return ctx
}

func TestOpenWAVPlaysThroughGraph(t *testing.T) {
	data := make([]int, 800)
	for i := range data {
		data[i] = 16384
	}
	path := writeWAV(t, "half.wav", 8000, 16, 1, data)
	ctx := newContext(t, 8000, 1)

	p, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if got := p.Metadata().Title; got != "half" {
		t.Fatalf("expected title from file name, got %q", got)
	}
	if got := p.Duration(); got != 100*time.Millisecond {
		t.Fatalf("expected 100ms duration, got %v", got)
	}
	if err := ctx.Connect(p.Source(), ctx.Destination()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	buf := make([]float32, 256)
	ctx.Render(buf)
	if buf[0] != 0.5 || buf[255] != 0.5 {
		t.Fatalf("expected 0.5 samples, got %v and %v", buf[0], buf[255])
	}

	for range 10 {
		ctx.Render(buf)
	}
	select {
	case <-p.Done():
	default:
		t.Fatal("expected playback to finish")
	}
	if p.Err() != nil {
		t.Fatalf("expected clean end, got %v", p.Err())
	}
	if got := p.Position(); got != p.Duration() {
		t.Fatalf("expected position %v at end, got %v", p.Duration(), got)
	}
}

func TestOpenWAVConvertsFormat(t *testing.T) {
	// 24-bit stereo at 4 kHz into an 8 kHz mono graph.
	data := []int{1 << 22, -(1 << 22), 1 << 21, 1 << 21}
	path := writeWAV(t, "deep.wav", 4000, 24, 2, data)
	ctx := newContext(t, 8000, 1)

	p, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()
	expectSamples(t, readAll(t, p.stream), []float32{0, 0.125, 0.25, 0.25})
}

func TestOpenRejectsUnsupportedAndMissingFiles(t *testing.T) {
	ctx := newContext(t, 8000, 1)

	bogus := filepath.Join(t.TempDir(), "clip.m4a")
	if err := os.WriteFile(bogus, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Open(ctx, bogus); !errors.Is(err, media.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Open(ctx, filepath.Join(t.TempDir(), "gone.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	junk := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(junk, []byte("RIFF...."), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Open(ctx, junk); err == nil {
		t.Fatal("expected error for malformed WAV")
	}
}

func TestTogglePauseSuspendsContext(t *testing.T) {
	ctx := newContext(t, 8000, 1)
	p, err := Open(ctx, writeWAV(t, "t.wav", 8000, 16, 1, make([]int, 64)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	p.TogglePause()
	if !p.Paused() || ctx.State() != audiograph.Suspended {
		t.Fatalf("expected suspended context, got %v", ctx.State())
	}
	p.TogglePause()
	if p.Paused() {
		t.Fatal("expected resumed context")
	}
}

func TestPlayerCloseDetachesOnce(t *testing.T) {
	ctx := newContext(t, 8000, 1)
	p, err := Open(ctx, writeWAV(t, "t.wav", 8000, 16, 1, make([]int, 64)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ctx.Connect(p.Source(), ctx.Destination()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	p.Close()
	p.Close()
	if got := ctx.Outputs(p.Source()); got != 0 {
		t.Fatalf("expected source detached, got %d outputs", got)
	}
}

func TestMetadataString(t *testing.T) {
	if got := (Metadata{Title: "Song", Artist: "Band"}).String(); got != "Band - Song" {
		t.Fatalf("expected %q, got %q", "Band - Song", got)
	}
	if got := (Metadata{Title: "Song"}).String(); got != "Song" {
		t.Fatalf("expected %q, got %q", "Song", got)
	}
}
