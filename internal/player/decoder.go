package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/olivier-w/climpviz/internal/media"
)

// decoder is implemented by all format-specific decoders. Samples are
// interleaved float32 in [-1, 1] at the file's own rate and channel count.
type decoder interface {
	ReadSamples(dst []float32) (int, error)
	SampleRate() int
	Channels() int
	Frames() int64 // total frames, 0 when unknown
}

// newDecoder detects format by file extension and returns the appropriate decoder.
func newDecoder(f *os.File) (decoder, error) {
	format, ok := media.Detect(f.Name())
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrUnsupported, f.Name())
	}
	switch format {
	case media.MP3:
		return newMP3Decoder(f)
	case media.WAV:
		return newWAVDecoder(f)
	case media.FLAC:
		return newFLACDecoder(f)
	default:
		return newOGGDecoder(f)
	}
}

func clampSample(v float32) float32 {
	return max(-1, min(1, v))
}

// --- MP3 decoder ---

// go-mp3 always produces 16-bit stereo.
type mp3Decoder struct {
	dec *mp3.Decoder
	raw []byte
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) ReadSamples(dst []float32) (int, error) {
	size := len(dst) * 2
	if cap(d.raw) < size {
		d.raw = make([]byte, size)
	}
	n, err := io.ReadFull(d.dec, d.raw[:size])
	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(d.raw[i*2:]))) / 32768
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return samples, err
}

func (d *mp3Decoder) SampleRate() int { return d.dec.SampleRate() }
func (d *mp3Decoder) Channels() int   { return 2 }

func (d *mp3Decoder) Frames() int64 {
	if n := d.dec.Length(); n > 0 {
		return n / 4
	}
	return 0
}

// --- WAV decoder ---

type wavDecoder struct {
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	bitDepth int
	channels int
	rate     int
	frames   int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	frameSize := int64(channels * bitDepth / 8)
	return &wavDecoder{
		dec:      dec,
		bitDepth: bitDepth,
		channels: channels,
		rate:     int(dec.SampleRate),
		frames:   dec.PCMLen() / frameSize,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

func (d *wavDecoder) ReadSamples(dst []float32) (int, error) {
	if cap(d.buf.Data) < len(dst) {
		d.buf.Data = make([]int, len(dst))
	}
	d.buf.Data = d.buf.Data[:len(dst)]

	n, err := d.dec.PCMBuffer(d.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	scale := float32(int(1) << (d.bitDepth - 1))
	for i, v := range d.buf.Data[:n] {
		if d.bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		dst[i] = clampSample(float32(v) / scale)
	}
	return n, err
}

func (d *wavDecoder) SampleRate() int { return d.rate }
func (d *wavDecoder) Channels() int   { return d.channels }
func (d *wavDecoder) Frames() int64   { return d.frames }

// --- FLAC decoder ---

type flacDecoder struct {
	stream   *flac.Stream
	pending  []float32
	rate     int
	channels int
	bps      int
	frames   int64
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	return &flacDecoder{
		stream:   stream,
		rate:     int(info.SampleRate),
		channels: int(info.NChannels),
		bps:      int(info.BitsPerSample),
		frames:   int64(info.NSamples),
	}, nil
}

func (d *flacDecoder) ReadSamples(dst []float32) (int, error) {
	// Drain buffered data first
	if len(d.pending) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		scale := float32(int64(1) << (d.bps - 1))
		nSamples := int(frame.Subframes[0].NSamples)
		d.pending = d.pending[:0]
		for i := range nSamples {
			for ch := range d.channels {
				d.pending = append(d.pending, clampSample(float32(frame.Subframes[ch].Samples[i])/scale))
			}
		}
	}
	n := copy(dst, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *flacDecoder) SampleRate() int { return d.rate }
func (d *flacDecoder) Channels() int   { return d.channels }
func (d *flacDecoder) Frames() int64   { return d.frames }

// --- OGG Vorbis decoder ---

type oggDecoder struct {
	reader *oggvorbis.Reader
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggDecoder{reader: reader}, nil
}

func (d *oggDecoder) ReadSamples(dst []float32) (int, error) {
	n, err := d.reader.Read(dst)
	for i := range n {
		dst[i] = clampSample(dst[i])
	}
	return n, err
}

func (d *oggDecoder) SampleRate() int { return d.reader.SampleRate() }
func (d *oggDecoder) Channels() int   { return d.reader.Channels() }
func (d *oggDecoder) Frames() int64   { return d.reader.Length() }
