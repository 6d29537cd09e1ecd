package classifier

import (
	"strings"

	"github.com/Veraticus/frame-labeler/internal/engine"
)

// Classifier is an engine classifier that holds resources until closed.
type Classifier interface {
	engine.Classifier
	Close() error
}

// New creates a classifier for the configured provider.
func New(cfg Config) (Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderHTTP:
		return NewHTTPClassifier(cfg)
	default:
		return NewMockClassifier(cfg), nil
	}
}
