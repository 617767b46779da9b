package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration, loaded from YAML and then
// overridden by environment variables and command line flags.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
	Scene    string         `yaml:"scene"` // initially active scene
	Audio    AudioConfig    `yaml:"audio"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Host     HostConfig     `yaml:"host"`
	Scenes   ScenesConfig   `yaml:"scenes"`
}

// AudioConfig configures the audio graph context.
type AudioConfig struct {
	SampleRate int     `yaml:"sample_rate"`
	Channels   int     `yaml:"channels"`
	Volume     float64 `yaml:"volume"`
}

// AnalyzerConfig configures the spectrum analyzer transform.
type AnalyzerConfig struct {
	FFTSize     int     `yaml:"fft_size"`  // power of two; band count is half of it
	Smoothing   float64 `yaml:"smoothing"` // 0 (none) to just below 1
	MinDecibels float64 `yaml:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels"`
}

// HostConfig configures the frame loop.
type HostConfig struct {
	FPS                    int `yaml:"fps"`
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

// ScenesConfig holds per-scene parameters.
type ScenesConfig struct {
	Bars         BarsConfig         `yaml:"bars"`
	CircuitBeat  CircuitBeatConfig  `yaml:"circuit_beat"`
	PulsingImage PulsingImageConfig `yaml:"pulsing_image"`
}

type BarsConfig struct {
	Resolution      int     `yaml:"resolution"`
	Radius          float64 `yaml:"radius"`
	BassIntensity   float64 `yaml:"bass_intensity"`
	TrebleIntensity float64 `yaml:"treble_intensity"`
	RotationSpeed   float64 `yaml:"rotation_speed"`
	ColorScheme     string  `yaml:"color_scheme"`
}

type CircuitBeatConfig struct {
	Knots       int     `yaml:"knots"`
	Particles   int     `yaml:"particles"`
	OrbitRadius float64 `yaml:"orbit_radius"`
	OrbitSpeed  float64 `yaml:"orbit_speed"`
}

type PulsingImageConfig struct {
	Path string `yaml:"path"`
}

const (
	DefaultScene       = "Bars"
	DefaultSampleRate  = 44100
	DefaultChannels    = 2
	DefaultVolume      = 0.8
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100
	DefaultMaxDecibels = -30
	DefaultFPS         = 60
	DefaultMaxFailures = 3

	MinFFTSize = 32
	MaxFFTSize = 32768
	MaxFPS     = 240
)

var (
	ErrFFTSize      = errors.New("analyzer.fft_size must be a power of two between 32 and 32768")
	ErrSmoothing    = errors.New("analyzer.smoothing must be in [0, 1)")
	ErrDecibelRange = errors.New("analyzer.min_decibels must be below analyzer.max_decibels")
	ErrFPS          = errors.New("host.fps must be between 1 and 240")
	ErrMaxFailures  = errors.New("host.max_consecutive_failures must be at least 1")
	ErrAudio        = errors.New("audio.sample_rate and audio.channels must be positive")
	ErrVolume       = errors.New("audio.volume must be in [0, 1]")
	ErrColorScheme  = errors.New("scenes.bars.color_scheme must be one of rainbow, heatmap, electric, pastel")
)

// ColorSchemes are the accepted scenes.bars.color_scheme values.
var ColorSchemes = []string{"rainbow", "heatmap", "electric", "pastel"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Scene:    DefaultScene,
		Audio: AudioConfig{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
			Volume:     DefaultVolume,
		},
		Analyzer: AnalyzerConfig{
			FFTSize:     DefaultFFTSize,
			Smoothing:   DefaultSmoothing,
			MinDecibels: DefaultMinDecibels,
			MaxDecibels: DefaultMaxDecibels,
		},
		Host: HostConfig{
			FPS:                    DefaultFPS,
			MaxConsecutiveFailures: DefaultMaxFailures,
		},
		Scenes: ScenesConfig{
			Bars: BarsConfig{
				Resolution:      24,
				Radius:          40,
				BassIntensity:   1.5,
				TrebleIntensity: 1.0,
				RotationSpeed:   0.01,
				ColorScheme:     "rainbow",
			},
			CircuitBeat: CircuitBeatConfig{
				Knots:       5,
				Particles:   100,
				OrbitRadius: 60,
				OrbitSpeed:  0.1,
			},
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty path
// searches the default locations and falls back to the built-in defaults when
// none exists. Environment overrides are applied last, then the result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findDefault()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func findDefault() string {
	candidates := []string{"climpviz.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "climpviz", "config.yaml"),
			filepath.Join(home, ".config", "climpviz", "config.yml"),
		)
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Validate checks every field that the rest of the program relies on.
func (c *Config) Validate() error {
	a := c.Analyzer
	if a.FFTSize < MinFFTSize || a.FFTSize > MaxFFTSize || bits.OnesCount(uint(a.FFTSize)) != 1 {
		return fmt.Errorf("%w (got %d)", ErrFFTSize, a.FFTSize)
	}
	if a.Smoothing < 0 || a.Smoothing >= 1 {
		return fmt.Errorf("%w (got %v)", ErrSmoothing, a.Smoothing)
	}
	if a.MinDecibels >= a.MaxDecibels {
		return ErrDecibelRange
	}
	if c.Host.FPS < 1 || c.Host.FPS > MaxFPS {
		return fmt.Errorf("%w (got %d)", ErrFPS, c.Host.FPS)
	}
	if c.Host.MaxConsecutiveFailures < 1 {
		return ErrMaxFailures
	}
	if c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0 {
		return ErrAudio
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return ErrVolume
	}
	if s := c.Scenes.Bars.ColorScheme; s != "" && !knownScheme(s) {
		return fmt.Errorf("%w (got %q)", ErrColorScheme, s)
	}
	return nil
}

func knownScheme(name string) bool {
	for _, s := range ColorSchemes {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// applyEnv applies CLIMPVIZ_* overrides. A malformed number is an error.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("CLIMPVIZ_SCENE"); ok && v != "" {
		c.Scene = v
	}
	if v, ok := os.LookupEnv("CLIMPVIZ_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("CLIMPVIZ_LOG_FILE"); ok {
		c.LogFile = v
	}
	if err := envInt("CLIMPVIZ_FPS", &c.Host.FPS); err != nil {
		return err
	}
	if err := envInt("CLIMPVIZ_FFT_SIZE", &c.Analyzer.FFTSize); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("CLIMPVIZ_IMAGE"); ok {
		c.Scenes.PulsingImage.Path = v
	}
	return nil
}

// envInt sets dst from the named variable when it is set and not empty.
func envInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	*dst = n
	return nil
}
