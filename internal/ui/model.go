// Package ui is the Bubble Tea front end: it prints the visualization
// container, forwards terminal resizes to the host and cycles scenes.
package ui

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/climpviz/internal/player"
	"github.com/olivier-w/climpviz/internal/registry"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/util"
	"github.com/olivier-w/climpviz/internal/visual"
)

// Host is the part of the visualization host the TUI drives.
type Host interface {
	Activate(name string, f visual.Factory) error
	Resize(cols, rows int) error
	Stop()
}

// Playback is the part of the player the TUI shows and controls.
type Playback interface {
	TogglePause()
	Paused() bool
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Metadata() player.Metadata
}

// Lines around the canvas: header, two spacers, title, progress, status,
// error and help.
const chromeLines = 8

const errorTTL = 5 * time.Second

// Model is the Bubbletea model for the climpviz TUI.
type Model struct {
	host      Host
	scenes    *registry.Registry
	container *render.Container
	playback  Playback
	feed      *ErrorFeed

	keys     keyMap
	help     help.Model
	progress progress.Model
	interval time.Duration

	scene    string
	metadata player.Metadata
	elapsed  time.Duration
	duration time.Duration
	paused   bool
	width    int
	height   int
	quitting bool

	errText string
	errTime time.Time
	now     func() time.Time
}

// New creates a Model. scene is the name already active on h; the frame
// redraw runs at fps.
func New(h Host, scenes *registry.Registry, c *render.Container, p Playback, feed *ErrorFeed, scene string, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	if feed == nil {
		feed = NewErrorFeed(1)
	}
	return Model{
		host:      h,
		scenes:    scenes,
		container: c,
		playback:  p,
		feed:      feed,
		keys:      defaultKeys(),
		help:      help.New(),
		progress: progress.New(
			progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
			progress.WithoutPercentage(),
		),
		interval: time.Second / time.Duration(fps),
		scene:    scene,
		metadata: p.Metadata(),
		duration: p.Duration(),
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.interval),
		checkDone(m.playback),
		m.feed.wait(),
		tea.SetWindowTitle(windowTitle(m.metadata.Title, false)),
	)
}

func checkDone(p Playback) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Pause):
			m.playback.TogglePause()
			m.paused = m.playback.Paused()
			return m, tea.SetWindowTitle(windowTitle(m.metadata.Title, m.paused))
		case key.Matches(msg, m.keys.NextScene):
			m.switchScene(m.scenes.Next(m.scene))
		case key.Matches(msg, m.keys.PrevScene):
			m.switchScene(m.scenes.Prev(m.scene))
		}
		return m, nil

	case frameMsg:
		m.elapsed = m.playback.Position()
		m.paused = m.playback.Paused()
		if m.errText != "" && m.now().Sub(m.errTime) > errorTTL {
			m.errText = ""
		}
		return m, frameCmd(m.interval)

	case reportMsg:
		m.errText = msg.err.Error()
		m.errTime = m.now()
		return m, m.feed.wait()

	case playbackEndedMsg:
		m.elapsed = m.duration
		return m.quit()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		cols, rows := m.canvasSize()
		// Failures reach the feed through the host's reporter.
		_ = m.host.Resize(cols, rows)
		return m, nil
	}

	return m, nil
}

func (m *Model) switchScene(name string) {
	f, ok := m.scenes.Lookup(name)
	if !ok {
		return
	}
	m.scene = name
	_ = m.host.Activate(name, f)
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.host.Stop()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m Model) canvasSize() (cols, rows int) {
	return max(m.width-4, 1), max(m.height-chromeLines, 1)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := titleStyle.Render(m.metadata.Title)
	if m.metadata.Artist != "" {
		title += "  " + artistStyle.Render(m.metadata.Artist)
	}

	elapsed := util.FormatDuration(m.elapsed)
	total := util.FormatDuration(m.duration)
	m.progress.Width = max(m.width-len(elapsed)-len(total)-6, 10)
	bar := m.progress.ViewAs(ratio(m.elapsed.Seconds(), m.duration.Seconds()))
	progressLine := fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), bar, timeStyle.Render(total))

	index := slices.Index(m.scenes.Names(), m.scene)
	status := statusStyle.Render(renderStatus(m.paused, m.scene, index, len(m.scenes.Names())))

	errLine := ""
	if m.errText != "" {
		errLine = errorStyle.Render(m.errText)
	}

	lines := "  " + headerStyle.Render("climpviz") + "\n"
	lines += "\n"
	lines += indent(m.container.View(), 2) + "\n"
	lines += "\n"
	lines += "  " + title + "\n"
	lines += "  " + progressLine + "\n"
	lines += "  " + status + "\n"
	lines += "  " + errLine + "\n"
	lines += "  " + m.help.View(m.keys)
	return lines
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " · climpviz"
	}
	return "▶ " + title + " · climpviz"
}
