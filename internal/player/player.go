// Package player turns audio files into sources on an audio graph.
package player

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/olivier-w/climpviz/internal/audiograph"
	"github.com/olivier-w/climpviz/internal/log"
)

// Player owns a decoded file and the source node that plays it. Pausing
// suspends the whole context, so the analyzer sees silence too.
type Player struct {
	file   *os.File
	stream *normalizedStream
	ctx    *audiograph.Context
	source *audiograph.SourceNode
	meta   Metadata

	mu      sync.Mutex
	closed  bool
	cleanup func()
}

// Open decodes the file at path into a new source node on ctx. The node is
// not connected; callers wire it into the graph.
func Open(ctx *audiograph.Context, path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	stream, err := newNormalizedStream(dec, ctx.SampleRate(), ctx.Channels())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("player: opened %s (%d Hz/%d ch -> %d Hz/%d ch)",
		path, dec.SampleRate(), dec.Channels(), ctx.SampleRate(), ctx.Channels())

	p := &Player{
		file:   f,
		stream: stream,
		ctx:    ctx,
		source: ctx.NewSource(stream),
		meta:   ReadMetadata(path),
	}
	p.cleanup = func() {
		ctx.Disconnect(p.source)
		f.Close()
	}
	return p, nil
}

// Source returns the node that emits the decoded audio.
func (p *Player) Source() *audiograph.SourceNode { return p.source }

// Metadata returns the track's tags.
func (p *Player) Metadata() Metadata { return p.meta }

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} { return p.source.Done() }

// Err returns the decode error that ended playback, if any.
func (p *Player) Err() error { return p.source.Err() }

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	if p.Paused() {
		p.ctx.Resume()
	} else {
		p.ctx.Suspend()
	}
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	return p.ctx.State() == audiograph.Suspended
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	return framesToDuration(p.stream.Played(), p.ctx.SampleRate())
}

// Duration returns the total duration of the track, 0 when unknown.
func (p *Player) Duration() time.Duration {
	return framesToDuration(p.stream.Frames(), p.ctx.SampleRate())
}

func framesToDuration(frames int64, rate int) time.Duration {
	return time.Duration(float64(frames) / float64(rate) * float64(time.Second))
}

// Close detaches the source from the graph and releases the file.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.cleanup != nil {
		p.cleanup()
	}
}
