package engine

import (
	"context"

	"github.com/Veraticus/frame-labeler/internal/model"
)

// Classifier defines the contract for the image classification collaborator.
// Classify returns a ranked list or an error, never both; adapters normalize
// whatever their backend produces into that shape.
type Classifier interface {
	Load(ctx context.Context) (model.ModelInfo, error)
	Classify(ctx context.Context, frame model.Frame) (model.Predictions, error)
}

// FrameSource defines the contract for the capture device.
type FrameSource interface {
	// Open starts the device without blocking. onReady is called once, when
	// the first decodable frame is available.
	Open(ctx context.Context, onReady func()) error
	Ready() bool
	// Frame returns the most recent frame or common.ErrFrameNotReady and
	// marks it consumed.
	Frame() (model.Frame, error)
	// Latest returns the most recent frame without marking it consumed.
	Latest() (model.Frame, error)
	Close() error
}
