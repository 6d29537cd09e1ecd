package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
)

// Provider names accepted by New.
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
)

// Config holds classifier settings. Field tags match the classifier.*
// configuration keys.
type Config struct {
	Provider      string        `mapstructure:"provider"`
	ModelURL      string        `mapstructure:"model_url"`
	Endpoint      string        `mapstructure:"endpoint"`
	Token         string        `mapstructure:"token"`
	Labels        []string      `mapstructure:"labels"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MockLatency   time.Duration `mapstructure:"mock_latency"`
	RateLimit     int           `mapstructure:"rate_limit"`
	JPEGQuality   int           `mapstructure:"jpeg_quality"`
	MockFailEvery int           `mapstructure:"mock_fail_every"`
	LoadRetries   int           `mapstructure:"load_retries"`
}

// DefaultConfig returns a mock classifier over three colour labels.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderMock,
		Labels:      []string{"red", "green", "blue"},
		Timeout:     10 * time.Second,
		JPEGQuality: 85,
		LoadRetries: 3,
	}
}

// Validate checks the configuration for the selected provider.
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderHTTP:
		if c.ModelURL == "" {
			return fmt.Errorf("%w: classifier.model_url is required for the http provider", common.ErrMissingConfig)
		}
	case ProviderMock:
		if len(c.Labels) == 0 {
			return fmt.Errorf("%w: classifier.labels must not be empty for the mock provider", common.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported classifier provider: %q", common.ErrInvalidConfig, c.Provider)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("%w: classifier.rate_limit must not be negative", common.ErrInvalidConfig)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: classifier.jpeg_quality must be between 0 and 100, got %d", common.ErrInvalidConfig, c.JPEGQuality)
	}
	return nil
}

// metadataURL returns the model metadata location. Model URLs name a
// directory, so a trailing slash is added when missing.
func (c Config) metadataURL() string {
	return c.baseURL() + "metadata.json"
}

func (c Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return c.baseURL() + "classify"
}

func (c Config) baseURL() string {
	if strings.HasSuffix(c.ModelURL, "/") {
		return c.ModelURL
	}
	return c.ModelURL + "/"
}
