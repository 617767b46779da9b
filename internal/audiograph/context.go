// Package audiograph is a small pull-based audio processing graph.
//
// A Context is created explicitly by the top-level coordinator and handed to
// every component that needs to create or connect nodes. Audio is pulled from
// the destination node in render quanta; each node is evaluated at most once
// per quantum, so fan-out does not consume a source twice.
package audiograph

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a Context.
type State uint8

const (
	Running State = iota
	Suspended
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrForeignNode       = errors.New("node belongs to a different audio context")
	ErrClosed            = errors.New("audio context is closed")
	ErrInvalidConnection = errors.New("invalid connection")
	ErrNilNode           = errors.New("nil node")
)

// Options configures a new Context.
type Options struct {
	SampleRate int
	Channels   int
}

type edge struct {
	from Node
	to   Node
}

// Context owns the nodes and edges of one graph. All topology changes and
// rendering are serialized by its mutex.
type Context struct {
	sampleRate int
	channels   int

	mu     sync.Mutex
	state  State
	nextID uint64
	edges  []edge
	pass   uint64
	dest   *Destination
}

// New creates a running Context.
func New(opts Options) (*Context, error) {
	if opts.SampleRate <= 0 || opts.Channels <= 0 {
		return nil, fmt.Errorf("audiograph: sample rate and channels must be positive (got %d Hz, %d ch)", opts.SampleRate, opts.Channels)
	}
	c := &Context{
		sampleRate: opts.SampleRate,
		channels:   opts.Channels,
	}
	c.dest = &Destination{node: c.newNode()}
	return c, nil
}

func (c *Context) newNode() node {
	c.nextID++
	return node{ctx: c, id: c.nextID}
}

func (c *Context) SampleRate() int { return c.sampleRate }
func (c *Context) Channels() int   { return c.channels }

// Destination returns the graph's final output node.
func (c *Context) Destination() *Destination { return c.dest }

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NewSource wraps a sample stream as a source node. The stream must produce
// interleaved samples with the context's channel count.
func (c *Context) NewSource(s Stream) *SourceNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &SourceNode{node: c.newNode(), stream: s, done: make(chan struct{})}
}

// NewAnalyser creates a pass-through node that records a mono mix of the
// audio flowing through it into a ring of the given capacity.
func (c *Context) NewAnalyser(capacity int) *AnalyserNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &AnalyserNode{node: c.newNode(), tap: newTap(capacity)}
}

// Connect adds an edge from -> to. Both nodes must belong to c. Connecting
// the same pair twice is a no-op.
func (c *Context) Connect(from, to Node) error {
	if from == nil || to == nil {
		return ErrNilNode
	}
	if from.base().ctx != c || to.base().ctx != c {
		return ErrForeignNode
	}
	if _, ok := from.(*Destination); ok {
		return fmt.Errorf("%w: destination has no outputs", ErrInvalidConnection)
	}
	if _, ok := to.(*SourceNode); ok {
		return fmt.Errorf("%w: source nodes have no inputs", ErrInvalidConnection)
	}
	if from.base().id == to.base().id {
		return fmt.Errorf("%w: self connection", ErrInvalidConnection)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	for _, e := range c.edges {
		if e.from.base().id == from.base().id && e.to.base().id == to.base().id {
			return nil
		}
	}
	c.edges = append(c.edges, edge{from: from, to: to})
	return nil
}

// Disconnect removes every edge into or out of n.
func (c *Context) Disconnect(n Node) {
	if n == nil || n.base().ctx != c {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := n.base().id
	kept := c.edges[:0]
	for _, e := range c.edges {
		if e.from.base().id != id && e.to.base().id != id {
			kept = append(kept, e)
		}
	}
	clear(c.edges[len(kept):])
	c.edges = kept
}

// Connections returns the total number of edges in the graph.
func (c *Context) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.edges)
}

// Inputs returns the number of edges into n.
func (c *Context) Inputs(n Node) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inputsLocked(n))
}

// Outputs returns the number of edges out of n.
func (c *Context) Outputs(n Node) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, e := range c.edges {
		if e.from.base().id == n.base().id {
			count++
		}
	}
	return count
}

func (c *Context) inputsLocked(n Node) []Node {
	var in []Node
	for _, e := range c.edges {
		if e.to.base().id == n.base().id {
			in = append(in, e.from)
		}
	}
	return in
}

// Suspend stops pulling audio; rendering yields silence until Resume.
func (c *Context) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		c.state = Suspended
	}
}

// Resume restarts a suspended context.
func (c *Context) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Suspended {
		c.state = Running
	}
}

// Close removes every edge and makes the context unusable. Idempotent.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Closed
	c.edges = nil
}
