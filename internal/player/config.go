package player

import (
	"errors"
	"fmt"
	"math"

	cfg "github.com/1F47E/go-framereel/pkg/config"
)

var ErrInvalidConfig = errors.New("invalid sequence config")

// Config is the per sequence playback setup passed to Load.
type Config struct {
	FrameRate         float64
	Looping           bool
	MaxResidentFrames int
	Extension         string
	// frames ahead of the playhead queued for background decode, 0 disables
	Prefetch int
}

func DefaultConfig() Config {
	return Config{
		FrameRate:         cfg.DefaultFrameRate,
		Looping:           cfg.DefaultLooping,
		MaxResidentFrames: cfg.DefaultMaxResidentFrames,
		Extension:         cfg.DefaultExtension,
	}
}

func (c Config) Validate() error {
	if c.FrameRate <= 0 || math.IsNaN(c.FrameRate) || math.IsInf(c.FrameRate, 0) {
		return fmt.Errorf("%w: frame rate must be positive, got %v", ErrInvalidConfig, c.FrameRate)
	}
	if c.MaxResidentFrames < 1 {
		return fmt.Errorf("%w: max resident frames must be >= 1, got %d", ErrInvalidConfig, c.MaxResidentFrames)
	}
	if c.Prefetch < 0 {
		return fmt.Errorf("%w: prefetch cannot be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Extension == "" {
		c.Extension = cfg.DefaultExtension
	}
	return c
}
