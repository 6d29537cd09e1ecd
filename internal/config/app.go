package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/frame-labeler/internal/capture"
	"github.com/Veraticus/frame-labeler/internal/classifier"
	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/display"
	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/render"
	"github.com/spf13/viper"
)

// TokenEnv is read when classifier.token is not configured.
const TokenEnv = "MODEL_SERVER_TOKEN"

// Config is the complete application configuration.
type Config struct {
	Classifier classifier.Config
	Capture    capture.Config
	Display    display.Config
	Render     render.Options
	Loop       engine.LoopConfig
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	cls := classifier.DefaultConfig()
	v.SetDefault("classifier.provider", cls.Provider)
	v.SetDefault("classifier.labels", cls.Labels)
	v.SetDefault("classifier.timeout", cls.Timeout)
	v.SetDefault("classifier.jpeg_quality", cls.JPEGQuality)
	v.SetDefault("classifier.load_retries", cls.LoadRetries)

	cpt := capture.DefaultConfig()
	v.SetDefault("capture.source", cpt.Source)
	v.SetDefault("capture.fps", cpt.FPS)
	v.SetDefault("capture.width", cpt.Width)
	v.SetDefault("capture.height", cpt.Height)
	v.SetDefault("capture.timeout", cpt.Timeout)

	disp := display.DefaultConfig()
	v.SetDefault("display.interval", disp.Interval)
	v.SetDefault("display.slots", disp.Slots)
	v.SetDefault("display.layout", string(display.LayoutFixed))
	v.SetDefault("display.offsets", display.DefaultOffsets)
	v.SetDefault("display.mirror", true)

	loop := engine.DefaultLoopConfig()
	v.SetDefault("loop.not_ready_delay", loop.NotReadyDelay)
	v.SetDefault("loop.error_delay", loop.ErrorDelay)
}

// Load reads the configuration from v. Precedence follows viper: flags,
// LABELER_ environment variables, the config file, then defaults. The
// classifier token additionally falls back to MODEL_SERVER_TOKEN.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Classifier: loadClassifier(v),
		Capture:    loadCapture(v),
		Loop: engine.LoopConfig{
			NotReadyDelay: v.GetDuration("loop.not_ready_delay"),
			ErrorDelay:    v.GetDuration("loop.error_delay"),
		},
	}

	disp, err := loadDisplay(v)
	if err != nil {
		return nil, err
	}
	cfg.Display = disp

	opts, err := loadRender(v, disp)
	if err != nil {
		return nil, err
	}
	cfg.Render = opts

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Capture.Validate(); err != nil {
		return err
	}
	if c.Display.Interval <= 0 {
		return fmt.Errorf("%w: display.interval must be positive", common.ErrInvalidConfig)
	}
	if c.Display.Slots < 1 || c.Display.Slots > display.MaxSlots {
		return fmt.Errorf("%w: display.slots must be between 1 and %d, got %d", common.ErrInvalidConfig, display.MaxSlots, c.Display.Slots)
	}
	if c.Loop.NotReadyDelay < 0 || c.Loop.ErrorDelay < 0 {
		return fmt.Errorf("%w: loop delays must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

func loadClassifier(v *viper.Viper) classifier.Config {
	cfg := classifier.Config{
		Provider:      strings.ToLower(v.GetString("classifier.provider")),
		ModelURL:      v.GetString("classifier.model_url"),
		Endpoint:      v.GetString("classifier.endpoint"),
		Token:         v.GetString("classifier.token"),
		Labels:        v.GetStringSlice("classifier.labels"),
		Timeout:       v.GetDuration("classifier.timeout"),
		RateLimit:     v.GetInt("classifier.rate_limit"),
		JPEGQuality:   v.GetInt("classifier.jpeg_quality"),
		LoadRetries:   v.GetInt("classifier.load_retries"),
		MockLatency:   v.GetDuration("classifier.mock_latency"),
		MockFailEvery: v.GetInt("classifier.mock_fail_every"),
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnv)
	}
	return cfg
}

func loadCapture(v *viper.Viper) capture.Config {
	return capture.Config{
		Source:  strings.ToLower(v.GetString("capture.source")),
		Path:    ExpandPath(v.GetString("capture.path")),
		URL:     v.GetString("capture.url"),
		FPS:     v.GetFloat64("capture.fps"),
		Width:   v.GetInt("capture.width"),
		Height:  v.GetInt("capture.height"),
		Timeout: v.GetDuration("capture.timeout"),
	}
}

func loadDisplay(v *viper.Viper) (display.Config, error) {
	cfg := display.Config{
		Interval: v.GetDuration("display.interval"),
		Slots:    v.GetInt("display.slots"),
	}

	if v.IsSet("display.messages") {
		if err := v.UnmarshalKey("display.messages", &cfg.Messages); err != nil {
			return display.Config{}, fmt.Errorf("%w: display.messages: %w", common.ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

func loadRender(v *viper.Viper, disp display.Config) (render.Options, error) {
	layout, err := display.ParseLayout(v.GetString("display.layout"))
	if err != nil {
		return render.Options{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	offsets, err := floatSlice(v.Get("display.offsets"))
	if err != nil {
		return render.Options{}, fmt.Errorf("%w: display.offsets: %w", common.ErrInvalidConfig, err)
	}
	for _, f := range offsets {
		if f < 0 || f > 1 {
			return render.Options{}, fmt.Errorf("%w: display.offsets must be fractions of the width, got %g", common.ErrInvalidConfig, f)
		}
	}

	opts := render.DefaultOptions()
	opts.Layout = layout
	opts.Offsets = offsets
	opts.Mirror = v.GetBool("display.mirror")
	if msg := disp.Messages.WaitingCamera; msg != "" {
		opts.Placeholder = msg
	}
	return opts, nil
}

// floatSlice accepts the shapes viper produces for a list of numbers:
// a typed slice from defaults, []any from YAML, or a comma separated
// string from the environment.
func floatSlice(raw any) ([]float64, error) {
	switch vals := raw.(type) {
	case nil:
		return nil, nil
	case []float64:
		return append([]float64(nil), vals...), nil
	case []any:
		out := make([]float64, 0, len(vals))
		for _, val := range vals {
			f, err := toFloat(val)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case string:
		var out []float64
		for _, part := range strings.FieldsFunc(vals, func(r rune) bool { return r == ',' || r == ' ' }) {
			var f float64
			if _, err := fmt.Sscan(part, &f); err != nil {
				return nil, fmt.Errorf("invalid number %q", part)
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value %v", raw)
	}
}

func toFloat(val any) (float64, error) {
	switch n := val.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("invalid number %v", val)
	}
}
