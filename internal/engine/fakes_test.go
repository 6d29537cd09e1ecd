package engine

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// fakeClassifier answers from a script and records concurrency.
type fakeClassifier struct {
	loadErr   error
	loadGate  chan struct{}
	respond   func(call int) (model.Predictions, error)
	latency   time.Duration
	callTimes []time.Time
	info      model.ModelInfo
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	mu        sync.Mutex
}

func (f *fakeClassifier) Load(ctx context.Context) (model.ModelInfo, error) {
	if f.loadGate != nil {
		select {
		case <-f.loadGate:
		case <-ctx.Done():
			return model.ModelInfo{}, ctx.Err()
		}
	}
	if f.loadErr != nil {
		return model.ModelInfo{}, f.loadErr
	}
	return f.info, nil
}

func (f *fakeClassifier) Classify(ctx context.Context, _ model.Frame) (model.Predictions, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	if n > f.maxFlight.Load() {
		f.maxFlight.Store(n)
	}

	call := int(f.calls.Add(1))
	f.mu.Lock()
	f.callTimes = append(f.callTimes, time.Now())
	f.mu.Unlock()

	if f.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.latency):
		}
	}

	if f.respond == nil {
		return model.Predictions{{Label: "cat", Confidence: 0.91}}, nil
	}
	return f.respond(call)
}

func (f *fakeClassifier) times() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.callTimes))
	copy(out, f.callTimes)
	return out
}

// fakeSource is a frame source whose readiness the test controls.
type fakeSource struct {
	openErr error
	onReady func()
	ready   atomic.Bool
	closed  atomic.Bool
	seq     atomic.Uint64
	mu      sync.Mutex
}

func (s *fakeSource) Open(_ context.Context, onReady func()) error {
	if s.openErr != nil {
		return s.openErr
	}
	s.mu.Lock()
	s.onReady = onReady
	s.mu.Unlock()
	return nil
}

// becomeReady flips the source to ready and fires the callback once.
func (s *fakeSource) becomeReady() {
	s.ready.Store(true)
	s.mu.Lock()
	cb := s.onReady
	s.onReady = nil
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (s *fakeSource) Ready() bool {
	return s.ready.Load()
}

func (s *fakeSource) Frame() (model.Frame, error) {
	if !s.ready.Load() {
		return model.Frame{}, common.ErrFrameNotReady
	}
	return model.Frame{
		Image:  image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Width:  4,
		Height: 4,
		Seq:    s.seq.Add(1),
	}, nil
}

func (s *fakeSource) Latest() (model.Frame, error) {
	if !s.ready.Load() {
		return model.Frame{}, common.ErrFrameNotReady
	}
	return model.Frame{
		Image:  image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Width:  4,
		Height: 4,
		Seq:    s.seq.Load(),
	}, nil
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

func readySource() *fakeSource {
	s := &fakeSource{}
	s.ready.Store(true)
	return s
}
