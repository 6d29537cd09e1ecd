package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
)

// Source kinds accepted by NewSource.
const (
	SourceDir       = "dir"
	SourceHTTP      = "http"
	SourceSynthetic = "synthetic"
)

// Default capture size.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Config holds capture settings. Field tags match the capture.*
// configuration keys.
type Config struct {
	Source  string        `mapstructure:"source"`
	Path    string        `mapstructure:"path"`
	URL     string        `mapstructure:"url"`
	FPS     float64       `mapstructure:"fps"`
	Timeout time.Duration `mapstructure:"timeout"`
	Width   int           `mapstructure:"width"`
	Height  int           `mapstructure:"height"`
}

// DefaultConfig returns a synthetic source at 10 frames per second.
func DefaultConfig() Config {
	return Config{
		Source:  SourceSynthetic,
		FPS:     10,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Timeout: 5 * time.Second,
	}
}

// Validate checks the configuration for the selected source.
func (c Config) Validate() error {
	switch strings.ToLower(c.Source) {
	case SourceDir:
		if c.Path == "" {
			return fmt.Errorf("%w: capture.path is required for the dir source", common.ErrMissingConfig)
		}
	case SourceHTTP:
		if c.URL == "" {
			return fmt.Errorf("%w: capture.url is required for the http source", common.ErrMissingConfig)
		}
	case SourceSynthetic:
	default:
		return fmt.Errorf("%w: unsupported capture source: %q", common.ErrInvalidConfig, c.Source)
	}

	if c.FPS <= 0 || c.FPS > 60 {
		return fmt.Errorf("%w: capture.fps must be in (0, 60], got %g", common.ErrInvalidConfig, c.FPS)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: capture size must be positive, got %dx%d", common.ErrInvalidConfig, c.Width, c.Height)
	}
	return nil
}

func (c Config) interval() time.Duration {
	return time.Duration(float64(time.Second) / c.FPS)
}
