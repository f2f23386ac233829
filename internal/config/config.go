// Package config loads barscope's YAML settings and watches them for
// changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/visualizer"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS    = 30
	DefaultVolume = 0.8
	DefaultMode   = "bars"

	maxFPS = 240
)

var (
	ErrFPS    = errors.New("fps must be between 1 and 240")
	ErrVolume = errors.New("volume must be between 0 and 1")
	ErrMode   = errors.New("unknown visualizer mode")
)

type Config struct {
	FPS      int             `yaml:"fps"`
	Mute     bool            `yaml:"mute"`
	Volume   float64         `yaml:"volume"`
	Mode     string          `yaml:"mode"`
	Analyser analyser.Config `yaml:"analyser"`
	Palette  PaletteConfig   `yaml:"palette"`
	Log      LogConfig       `yaml:"log"`
}

type PaletteConfig struct {
	Low  string `yaml:"low"`  // #RRGGBB at silence
	High string `yaml:"high"` // #RRGGBB at full scale
}

type LogConfig struct {
	Level string `yaml:"level"` // logrus level name
	File  string `yaml:"file"`  // TUI mode only; empty discards
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		FPS:      DefaultFPS,
		Volume:   DefaultVolume,
		Mode:     DefaultMode,
		Analyser: analyser.DefaultConfig(),
		Palette: PaletteConfig{
			Low:  visualizer.DefaultPalette.Low.Hex(),
			High: visualizer.DefaultPalette.High.Hex(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/barscope/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "barscope", "config.yaml")
}

// Load reads path over the defaults and validates the result. A missing
// file or an empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and that the mode and palette are usable.
func (c *Config) Validate() error {
	if c.FPS < 1 || c.FPS > maxFPS {
		return fmt.Errorf("%w: got %d", ErrFPS, c.FPS)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("%w: got %v", ErrVolume, c.Volume)
	}
	if visualizer.ModeIndex(c.Mode) < 0 {
		return fmt.Errorf("%w: %q (want one of %v)", ErrMode, c.Mode, visualizer.ModeNames)
	}
	if _, err := c.PaletteColors(); err != nil {
		return err
	}
	if err := c.Analyser.Validate(); err != nil {
		return fmt.Errorf("analyser: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// PaletteColors parses the configured gradient.
func (c *Config) PaletteColors() (visualizer.Palette, error) {
	return visualizer.NewPalette(c.Palette.Low, c.Palette.High)
}
