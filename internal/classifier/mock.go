package classifier

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// mockSampleGrid is the number of sample points per axis when averaging a
// frame.
const mockSampleGrid = 16

// MockClassifier ranks its labels from the average colour of the frame.
// The same frame always gets the same ranking. Latency and periodic
// failures can be injected for demos.
type MockClassifier struct {
	labels    []string
	latency   time.Duration
	failEvery int
	calls     atomic.Int64
}

// NewMockClassifier creates a mock classifier over cfg.Labels.
func NewMockClassifier(cfg Config) *MockClassifier {
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = DefaultConfig().Labels
	}
	return &MockClassifier{
		labels:    append([]string(nil), labels...),
		latency:   cfg.MockLatency,
		failEvery: cfg.MockFailEvery,
	}
}

// Load reports the configured labels as the model.
func (m *MockClassifier) Load(ctx context.Context) (model.ModelInfo, error) {
	if err := common.Sleep(ctx, m.latency); err != nil {
		return model.ModelInfo{}, err
	}
	return model.ModelInfo{
		Name:      "mock",
		Version:   "1",
		Labels:    append([]string(nil), m.labels...),
		ImageSize: 224,
	}, nil
}

// Classify scores each label against one colour channel of the frame:
// label i follows channel i%3, damped by its position so later labels
// never tie with earlier ones on the same channel. Scores are normalised
// to sum to one.
func (m *MockClassifier) Classify(ctx context.Context, frame model.Frame) (model.Predictions, error) {
	n := m.calls.Add(1)

	if err := common.Sleep(ctx, m.latency); err != nil {
		return nil, err
	}

	if m.failEvery > 0 && n%int64(m.failEvery) == 0 {
		return nil, fmt.Errorf("%w: injected failure on call %d", common.ErrClassificationFailed, n)
	}

	if !frame.Decodable() {
		return nil, fmt.Errorf("%w: frame %d has no image", common.ErrClassificationFailed, frame.Seq)
	}

	means := channelMeans(frame.Image)

	scores := make([]float64, len(m.labels))
	var total float64
	for i := range m.labels {
		scores[i] = (means[i%3] + 0.01) / float64(i/3+1)
		total += scores[i]
	}

	preds := make(model.Predictions, len(m.labels))
	for i, label := range m.labels {
		preds[i] = model.Prediction{Label: label, Confidence: scores[i] / total}
	}
	preds.Sort()
	return preds, nil
}

// Calls returns how many Classify calls were made.
func (m *MockClassifier) Calls() int64 {
	return m.calls.Load()
}

// Close is a no-op.
func (m *MockClassifier) Close() error {
	return nil
}

// channelMeans samples img on a grid and returns mean R, G, B in [0, 1].
func channelMeans(img image.Image) [3]float64 {
	b := img.Bounds()
	var sums [3]float64
	var count float64

	for gy := 0; gy < mockSampleGrid; gy++ {
		y := b.Min.Y + (2*gy+1)*b.Dy()/(2*mockSampleGrid)
		for gx := 0; gx < mockSampleGrid; gx++ {
			x := b.Min.X + (2*gx+1)*b.Dx()/(2*mockSampleGrid)
			r, g, bl, _ := img.At(x, y).RGBA()
			sums[0] += float64(r) / 0xffff
			sums[1] += float64(g) / 0xffff
			sums[2] += float64(bl) / 0xffff
			count++
		}
	}

	return [3]float64{sums[0] / count, sums[1] / count, sums[2] / count}
}
