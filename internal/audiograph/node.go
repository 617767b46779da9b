package audiograph

import (
	"errors"
	"io"
	"sync"
)

// Stream produces interleaved float32 samples in [-1, 1]. ReadSamples
// returns the number of values written; io.EOF marks the end of the stream.
type Stream interface {
	ReadSamples(dst []float32) (int, error)
}

// Node is a vertex of the graph. Nodes are only created by a Context.
type Node interface {
	Context() *Context
	base() *node
}

type node struct {
	ctx  *Context
	id   uint64
	pass uint64
	out  []float32
}

func (n *node) Context() *Context { return n.ctx }
func (n *node) base() *node       { return n }

// buffer returns the node's zeroed output buffer for this quantum.
func (n *node) buffer(size int) []float32 {
	if cap(n.out) < size {
		n.out = make([]float32, size)
	}
	n.out = n.out[:size]
	clear(n.out)
	return n.out
}

// SourceNode feeds a Stream into the graph.
type SourceNode struct {
	node
	stream   Stream
	err      error
	ended    bool
	done     chan struct{}
	doneOnce sync.Once
}

// Done is closed once the underlying stream is exhausted or fails.
func (s *SourceNode) Done() <-chan struct{} { return s.done }

// Err returns the stream error that ended the source, if it was not io.EOF.
func (s *SourceNode) Err() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.err
}

func (s *SourceNode) fill(buf []float32) {
	if s.ended {
		return
	}
	filled := 0
	for filled < len(buf) {
		n, err := s.stream.ReadSamples(buf[filled:])
		filled += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.ended = true
			s.doneOnce.Do(func() { close(s.done) })
			return
		}
		if n == 0 {
			// A stream that returns nothing without an error is starved;
			// leave the rest of the quantum silent.
			return
		}
	}
}

// AnalyserNode passes audio through unchanged while recording a mono mix.
type AnalyserNode struct {
	node
	tap *tap
}

// Latest copies the most recent len(dst) mono samples into dst, oldest first,
// and returns the tap's write counter. The counter only grows, so callers can
// tell whether new audio arrived since their previous call.
func (a *AnalyserNode) Latest(dst []float32) uint64 {
	return a.tap.latest(dst)
}

// Written returns the number of mono samples recorded so far.
func (a *AnalyserNode) Written() uint64 {
	return a.tap.count()
}

// Destination is the graph's final output. Its inputs are summed.
type Destination struct {
	node
}

// Render pulls len(dst)/channels frames from the destination into dst.
// A suspended or closed context renders silence without advancing sources.
func (c *Context) Render(dst []float32) int {
	frames := len(dst) / c.channels
	size := frames * c.channels

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		clear(dst[:size])
		return frames
	}
	c.pass++
	out := c.pullLocked(c.dest, size)
	copy(dst, out)
	return frames
}

func (c *Context) pullLocked(n Node, size int) []float32 {
	b := n.base()
	if b.pass == c.pass {
		return b.out
	}
	b.pass = c.pass
	buf := b.buffer(size)

	if src, ok := n.(*SourceNode); ok {
		src.fill(buf)
		return buf
	}
	for _, in := range c.inputsLocked(n) {
		samples := c.pullLocked(in, size)
		for i := range buf {
			buf[i] += samples[i]
		}
	}
	if a, ok := n.(*AnalyserNode); ok {
		a.tap.write(buf, c.channels)
	}
	return buf
}
