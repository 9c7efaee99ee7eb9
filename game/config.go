package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Speed describes the drop interval curve, in seconds.
type Speed struct {
	Start     float64 `yaml:"start"`
	Decrement float64 `yaml:"decrement"`
	Min       float64 `yaml:"min"`
}

// Config holds the tunables both ends of a match must agree on, plus local
// loop limits.
type Config struct {
	Width             int           `yaml:"width"`
	Height            int           `yaml:"height"`
	Speed             Speed         `yaml:"speed"`
	MaxPendingActions int           `yaml:"max_pending_actions"`
	MaxFrameDelta     time.Duration `yaml:"max_frame_delta"`
}

// DefaultConfig returns the standard 8x20 court.
func DefaultConfig() Config {
	return Config{
		Width:  8,
		Height: 20,
		Speed: Speed{
			Start:     0.6,
			Decrement: 0.005,
			Min:       0.1,
		},
		MaxPendingActions: 16,
		MaxFrameDelta:     time.Second,
	}
}

// Validate checks that the config describes a playable court.
func (c Config) Validate() error {
	if c.Width < 4 || c.Height < 4 {
		return fmt.Errorf("court %dx%d too small", c.Width, c.Height)
	}
	if c.Speed.Min <= 0 {
		return fmt.Errorf("speed.min must be positive, got %v", c.Speed.Min)
	}
	if c.Speed.Start < c.Speed.Min {
		return fmt.Errorf("speed.start %v below speed.min %v", c.Speed.Start, c.Speed.Min)
	}
	if c.MaxPendingActions <= 0 {
		return fmt.Errorf("max_pending_actions must be positive, got %d", c.MaxPendingActions)
	}
	if c.MaxFrameDelta <= 0 {
		return fmt.Errorf("max_frame_delta must be positive, got %v", c.MaxFrameDelta)
	}
	return nil
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their DefaultConfig values. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
