package capture

import (
	"context"
	"image"
	"strings"
)

// Source produces raw images on demand.
type Source interface {
	// Name identifies the source in frames and logs.
	Name() string
	// Open prepares the source. It fails when the source can never
	// produce a frame.
	Open(ctx context.Context) error
	// Grab returns the next image.
	Grab(ctx context.Context) (image.Image, error)
	Close() error
}

// NewSource creates the configured source.
func NewSource(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Source) {
	case SourceDir:
		return NewDirSource(cfg.Path), nil
	case SourceHTTP:
		return NewHTTPSource(cfg.URL, cfg.Timeout), nil
	default:
		return NewSyntheticSource(cfg.Width, cfg.Height), nil
	}
}

// New creates a device over the configured source.
func New(cfg Config) (*Device, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	return NewDevice(src, cfg), nil
}
