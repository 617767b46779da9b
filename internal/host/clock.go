package host

import "time"

// FrameClock paces the frame loop.
type FrameClock interface {
	Ticks() <-chan time.Time
	Stop()
}

type tickerClock struct {
	t *time.Ticker
}

// NewTicker returns a clock that ticks fps times per second.
func NewTicker(fps int) FrameClock {
	if fps <= 0 {
		fps = 60
	}
	return tickerClock{t: time.NewTicker(time.Second / time.Duration(fps))}
}

func (c tickerClock) Ticks() <-chan time.Time { return c.t.C }
func (c tickerClock) Stop() { c.t.Stop() }
