package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/olivier-w/climpviz/internal/config"
	"github.com/olivier-w/climpviz/internal/host"
	"github.com/olivier-w/climpviz/internal/log"
	"github.com/olivier-w/climpviz/internal/media"
	"github.com/olivier-w/climpviz/internal/scenes"
	"github.com/olivier-w/climpviz/internal/ui"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "climpviz <file>",
		Short:         "Play an audio file with a live terminal visualization",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return play(cmd.Context(), cfg, args[0])
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file (default: ./climpviz.yaml or ~/.config/climpviz/config.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Write logs to this file")
	rootCmd.Flags().String("scene", "", "Scene to start with. Use 'scenes' to list them.")
	rootCmd.Flags().Int("fft-size", 0, "Analyzer FFT size, a power of two; bands are half of it")
	rootCmd.Flags().Int("fps", 0, "Frame rate of the visualization loop")
	rootCmd.Flags().Float64("volume", 0, "Playback volume from 0 to 1")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "List available scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return listScenes(cmd, cfg)
		},
	}
	rootCmd.AddCommand(scenesCmd)

	return rootCmd
}

// resolveConfig loads the config file and applies any flags the user set.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Lookup("scene") != nil && flags.Changed("scene") {
		cfg.Scene, _ = flags.GetString("scene")
	}
	if flags.Lookup("fft-size") != nil && flags.Changed("fft-size") {
		cfg.Analyzer.FFTSize, _ = flags.GetInt("fft-size")
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		cfg.Host.FPS, _ = flags.GetInt("fps")
	}
	if flags.Lookup("volume") != nil && flags.Changed("volume") {
		cfg.Audio.Volume, _ = flags.GetFloat64("volume")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	if _, ok := log.ParseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	return cfg, nil
}

func listScenes(cmd *cobra.Command, cfg *config.Config) error {
	reg, err := scenes.Registry(cfg.Scenes, cfg.Host.FPS)
	if err != nil {
		return err
	}
	active, ok := reg.Canonical(cfg.Scene)
	if !ok {
		active = reg.Default()
	}
	out := cmd.OutOrStdout()
	for _, name := range reg.Names() {
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

func setupLogging(cfg *config.Config) (func(), error) {
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	if cfg.LogFile == "" {
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "climpviz")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}

func play(parent context.Context, cfg *config.Config, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := openSession(cfg, path, openSpeakers)
	if err != nil {
		return err
	}
	defer s.close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	runErr := make(chan error, 1)
	go func() { runErr <- s.host.Run(ctx, host.NewTicker(cfg.Host.FPS)) }()

	model := ui.New(s.host, s.scenes, s.container, s.player, s.feed, s.scene, cfg.Host.FPS)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()

	cancel()
	if rerr := <-runErr; rerr != nil && !errors.Is(rerr, context.Canceled) {
		log.Errorf("host loop: %v", rerr)
	}
	if err != nil {
		return err
	}
	if perr := s.player.Err(); perr != nil {
		return fmt.Errorf("playback: %w", perr)
	}
	return nil
}
