package player

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// normalizedStream wraps a decoder and presents it at the audio context's
// rate and channel layout. Rates are converted by linear interpolation;
// channels are averaged down to mono or mapped round-robin otherwise.
type normalizedStream struct {
	src         decoder
	passthrough bool

	srcRate, srcChannels int
	outRate, outChannels int

	total     int64
	srcPosNum int64 // output frame index times srcRate
	outFrames atomic.Int64

	srcFrames []float32 // buffered source frames, interleaved
	baseFrame int64     // absolute index of srcFrames[0]
	tmp       []float32
	err       error // sticky; io.EOF once the decoder is drained
}

const chunkFrames = 2048

func newNormalizedStream(src decoder, outRate, outChannels int) (*normalizedStream, error) {
	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", src.SampleRate())
	}
	if src.Channels() < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	if outRate <= 0 || outChannels < 1 {
		return nil, fmt.Errorf("invalid output format %d Hz/%d ch", outRate, outChannels)
	}
	s := &normalizedStream{
		src:         src,
		passthrough: src.SampleRate() == outRate && src.Channels() == outChannels,
		srcRate:     src.SampleRate(),
		srcChannels: src.Channels(),
		outRate:     outRate,
		outChannels: outChannels,
		total:       src.Frames(),
	}
	if !s.passthrough && s.total > 0 {
		s.total = max(s.total*int64(outRate)/int64(s.srcRate), 1)
	}
	return s, nil
}

// Frames returns the expected number of output frames, 0 when unknown.
func (s *normalizedStream) Frames() int64 { return s.total }

// Played returns the number of output frames produced so far.
func (s *normalizedStream) Played() int64 { return s.outFrames.Load() }

func (s *normalizedStream) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)-len(dst)%s.outChannels]
	if s.passthrough {
		n, err := s.src.ReadSamples(dst)
		s.outFrames.Add(int64(n / s.outChannels))
		return n, err
	}

	written := 0
	for written < len(dst) {
		srcFrame := s.srcPosNum / int64(s.outRate)
		if !s.ensure(srcFrame) {
			break
		}
		next := srcFrame
		if s.ensure(srcFrame + 1) {
			next = srcFrame + 1
		}
		frac := float32(s.srcPosNum%int64(s.outRate)) / float32(s.outRate)
		s.mix(dst[written:written+s.outChannels], s.frameAt(srcFrame), s.frameAt(next), frac)

		written += s.outChannels
		s.srcPosNum += int64(s.srcRate)
	}
	s.outFrames.Add(int64(written / s.outChannels))

	if written == 0 && s.err != nil {
		return 0, s.err
	}
	return written, nil
}

func (s *normalizedStream) mix(dst, a, b []float32, frac float32) {
	if s.outChannels == 1 && s.srcChannels > 1 {
		var sum float32
		for ch := range s.srcChannels {
			sum += a[ch] + (b[ch]-a[ch])*frac
		}
		dst[0] = sum / float32(s.srcChannels)
		return
	}
	for k := range dst {
		ch := k % s.srcChannels
		dst[k] = a[ch] + (b[ch]-a[ch])*frac
	}
}

func (s *normalizedStream) frameAt(abs int64) []float32 {
	off := int(abs-s.baseFrame) * s.srcChannels
	return s.srcFrames[off : off+s.srcChannels]
}

// ensure makes frame abs available, dropping frames before abs-1. It
// reports false once the decoder cannot supply it.
func (s *normalizedStream) ensure(abs int64) bool {
	s.compact(abs - 1)
	for abs >= s.baseFrame+int64(len(s.srcFrames)/s.srcChannels) {
		if !s.readMore() {
			return false
		}
	}
	return true
}

func (s *normalizedStream) compact(minKeep int64) {
	drop := minKeep - s.baseFrame
	if drop <= 0 {
		return
	}
	available := int64(len(s.srcFrames) / s.srcChannels)
	if drop >= available {
		s.srcFrames = s.srcFrames[:0]
		s.baseFrame += available
		return
	}
	n := copy(s.srcFrames, s.srcFrames[int(drop)*s.srcChannels:])
	s.srcFrames = s.srcFrames[:n]
	s.baseFrame += drop
}

func (s *normalizedStream) readMore() bool {
	if s.err != nil {
		return false
	}
	size := chunkFrames * s.srcChannels
	if cap(s.tmp) < size {
		s.tmp = make([]float32, size)
	}

	// A decoder may hand back partial frames; keep reading until they line up.
	got := 0
	for got == 0 || got%s.srcChannels != 0 {
		n, err := s.src.ReadSamples(s.tmp[got:size])
		got += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("decoding: %w", err)
			}
			s.err = err
			break
		}
		if n == 0 {
			s.err = io.ErrNoProgress
			break
		}
	}
	got -= got % s.srcChannels
	s.srcFrames = append(s.srcFrames, s.tmp[:got]...)
	return got > 0
}
