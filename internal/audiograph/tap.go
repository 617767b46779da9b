package audiograph

import "sync"

// tap is a thread-safe circular buffer of mono samples. It is written by the
// render goroutine and read by the frame loop.
type tap struct {
	mu      sync.Mutex
	buf     []float32
	w       int    // write position
	written uint64 // total samples ever written
}

func newTap(size int) *tap {
	if size < 1 {
		size = 1
	}
	return &tap{buf: make([]float32, size)}
}

// write mixes interleaved frames down to mono and appends them, overwriting
// the oldest samples when full.
func (t *tap) write(interleaved []float32, channels int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	scale := 1 / float32(channels)
	for i := 0; i+channels <= len(interleaved); i += channels {
		var sum float32
		for ch := range channels {
			sum += interleaved[i+ch]
		}
		t.buf[t.w] = sum * scale
		t.w = (t.w + 1) % len(t.buf)
		t.written++
	}
}

// latest fills dst with the most recent samples, oldest first. When fewer
// samples than len(dst) have been written, the front of dst is zeroed.
func (t *tap) latest(dst []float32) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(dst)
	avail := len(t.buf)
	if uint64(avail) > t.written {
		avail = int(t.written)
	}
	if n > avail {
		clear(dst[:n-avail])
		dst = dst[n-avail:]
		n = avail
	}
	start := (t.w - n + len(t.buf)) % len(t.buf)
	for i := range n {
		dst[i] = t.buf[(start+i)%len(t.buf)]
	}
	return t.written
}

func (t *tap) count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}
