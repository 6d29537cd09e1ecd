package tui

import (
	"time"

	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/render"
	"github.com/Veraticus/frame-labeler/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Render       render.Options
	Display      display.Config
	TickInterval time.Duration
	Width        int
	Height       int
	ShowStats    bool
	ShowHelp     bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	opts := render.DefaultOptions()
	opts.Palette = themes.Default.Palette()

	return Config{
		Theme:        themes.Default,
		Render:       opts,
		Display:      display.DefaultConfig(),
		TickInterval: 50 * time.Millisecond,
		Width:        80,
		Height:       24,
		ShowStats:    true,
		ShowHelp:     true,
	}
}

// WithTheme sets the visual theme and the frame palette derived from it.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
		c.Render.Palette = theme.Palette()
	}
}

// WithRenderOptions sets slot layout, mirroring and placeholder text. The
// palette still follows the theme.
func WithRenderOptions(opts render.Options) Option {
	return func(c *Config) {
		palette := c.Render.Palette
		c.Render = opts
		c.Render.Palette = palette
	}
}

// WithDisplay sets the refresh interval, slot count and status messages.
func WithDisplay(cfg display.Config) Option {
	return func(c *Config) {
		c.Display = cfg
	}
}

// WithTickInterval sets how often the screen is redrawn.
func WithTickInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.TickInterval = d
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithStats shows or hides the confidence and counter panel.
func WithStats(enabled bool) Option {
	return func(c *Config) {
		c.ShowStats = enabled
	}
}

// WithHelp shows or hides the key help line.
func WithHelp(enabled bool) Option {
	return func(c *Config) {
		c.ShowHelp = enabled
	}
}
