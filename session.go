package main

import (
	"fmt"
	"strings"

	"github.com/olivier-w/climpviz/internal/analyzer"
	"github.com/olivier-w/climpviz/internal/audiograph"
	"github.com/olivier-w/climpviz/internal/config"
	"github.com/olivier-w/climpviz/internal/host"
	"github.com/olivier-w/climpviz/internal/log"
	"github.com/olivier-w/climpviz/internal/player"
	"github.com/olivier-w/climpviz/internal/registry"
	"github.com/olivier-w/climpviz/internal/render"
	"github.com/olivier-w/climpviz/internal/scenes"
	"github.com/olivier-w/climpviz/internal/ui"
)

// Initial canvas size until the terminal reports its own.
const (
	initialCols = 80
	initialRows = 20
)

// outputFunc starts audible playback of a context. Tests pass nil.
type outputFunc func(ctx *audiograph.Context, volume float64) (func(), error)

func openSpeakers(ctx *audiograph.Context, volume float64) (func(), error) {
	out, err := audiograph.OpenOutput(ctx, volume)
	if err != nil {
		return nil, err
	}
	return func() { out.Close() }, nil
}

// session wires one file through the graph to the visualization host.
type session struct {
	audio     *audiograph.Context
	player    *player.Player
	analyzer  *analyzer.Analyzer
	container *render.Container
	scenes    *registry.Registry
	host      *host.Host
	feed      *ui.ErrorFeed
	scene     string

	closers []func()
}

func openSession(cfg *config.Config, path string, output outputFunc) (*session, error) {
	s := &session{feed: ui.NewErrorFeed(16)}
	if err := s.open(cfg, path, output); err != nil {
		s.close()
		return nil, err
	}
	log.Infof("session: playing %s with scene %s", path, s.scene)
	return s, nil
}

func (s *session) open(cfg *config.Config, path string, output outputFunc) error {
	var err error
	s.scenes, err = scenes.Registry(cfg.Scenes, cfg.Host.FPS)
	if err != nil {
		return err
	}
	name, ok := s.scenes.Canonical(cfg.Scene)
	if !ok {
		return fmt.Errorf("unknown scene %q (available: %s)", cfg.Scene, strings.Join(s.scenes.Names(), ", "))
	}
	s.scene = name

	s.audio, err = audiograph.New(audiograph.Options{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})
	if err != nil {
		return err
	}
	s.closers = append(s.closers, s.audio.Close)

	s.player, err = player.Open(s.audio, path)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, s.player.Close)

	s.analyzer, err = analyzer.New(s.audio, analyzer.Config{
		FFTSize:     cfg.Analyzer.FFTSize,
		Smoothing:   cfg.Analyzer.Smoothing,
		MinDecibels: cfg.Analyzer.MinDecibels,
		MaxDecibels: cfg.Analyzer.MaxDecibels,
	})
	if err != nil {
		return err
	}
	if err = s.analyzer.Bind(s.player.Source()); err != nil {
		return err
	}
	s.closers = append(s.closers, s.analyzer.Release)

	if output != nil {
		stop, oerr := output(s.audio, cfg.Audio.Volume)
		if oerr != nil {
			return oerr
		}
		s.closers = append(s.closers, stop)
	}

	s.container = render.NewContainer(render.NewDevice(), initialCols, initialRows)
	s.container.SetProfile(render.DetectProfile())
	s.host = host.New(s.container, s.analyzer,
		host.WithReporter(s.feed.Report),
		host.WithMaxFailures(cfg.Host.MaxConsecutiveFailures),
	)
	s.closers = append(s.closers, s.host.Close)

	// A scene that fails to start leaves the host idle; the failure shows up
	// in the status line and the user can switch scenes.
	f, _ := s.scenes.Lookup(name)
	_ = s.host.Activate(name, f)
	return nil
}

// close tears everything down in reverse order of construction.
func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
