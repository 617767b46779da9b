package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/climpviz/internal/log"
)

// ErrorFeed carries host reports into the model. Report never blocks: the
// host may report from inside Update, which runs on the program's own
// goroutine.
type ErrorFeed struct {
	ch chan error
}

func NewErrorFeed(size int) *ErrorFeed {
	return &ErrorFeed{ch: make(chan error, max(size, 1))}
}

// Report queues err, dropping it when the feed is full.
func (f *ErrorFeed) Report(err error) {
	if err == nil {
		return
	}
	log.Warnf("ui: %v", err)
	select {
	case f.ch <- err:
	default:
		log.Debugf("ui: error feed full, dropping report")
	}
}

func (f *ErrorFeed) wait() tea.Cmd {
	return func() tea.Msg {
		return reportMsg{err: <-f.ch}
	}
}
