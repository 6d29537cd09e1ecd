package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// LoopConfig holds the delays of the classification loop.
type LoopConfig struct {
	// NotReadyDelay is the wait before retrying when no decodable frame exists.
	NotReadyDelay time.Duration
	// ErrorDelay is the wait before resubmitting after a failed classification.
	ErrorDelay time.Duration
}

// DefaultLoopConfig returns the default loop delays.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		NotReadyDelay: 100 * time.Millisecond,
		ErrorDelay:    time.Second,
	}
}

// LoopStats counts loop activity.
type LoopStats struct {
	Requests    uint64
	Successes   uint64
	Failures    uint64
	Malformed   uint64
	NotReady    uint64
	InFlight    int32
	MaxInFlight int32
}

// Loop submits frames to the classifier one at a time for the lifetime of
// a session. A request is always answered before the next is issued.
type Loop struct {
	classifier Classifier
	source     FrameSource
	store      *Store
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
	config     LoopConfig

	requests    atomic.Uint64
	successes   atomic.Uint64
	failures    atomic.Uint64
	malformed   atomic.Uint64
	notReady    atomic.Uint64
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

// NewLoop creates a classification loop writing into store.
func NewLoop(classifier Classifier, source FrameSource, store *Store, config LoopConfig) *Loop {
	defaults := DefaultLoopConfig()
	if config.NotReadyDelay <= 0 {
		config.NotReadyDelay = defaults.NotReadyDelay
	}
	if config.ErrorDelay <= 0 {
		config.ErrorDelay = defaults.ErrorDelay
	}

	return &Loop{
		classifier: classifier,
		source:     source,
		store:      store,
		config:     config,
		logger:     slog.Default(),
		sleep:      common.Sleep,
	}
}

// WithLogger sets the logger used for loop diagnostics.
func (l *Loop) WithLogger(logger *slog.Logger) *Loop {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Run drives the loop until ctx is cancelled. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Classification loop started")
	defer l.logger.Info("Classification loop stopped",
		"requests", l.requests.Load(),
		"failures", l.failures.Load())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := l.step(ctx)
		if err := l.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// step performs one submission and returns how long to wait before the next.
func (l *Loop) step(ctx context.Context) time.Duration {
	frame, err := l.source.Frame()
	if err != nil || !frame.Decodable() {
		l.notReady.Add(1)
		return l.config.NotReadyDelay
	}

	preds, err := l.submit(ctx, frame)

	switch {
	case err == nil:
		l.successes.Add(1)
		l.store.SetResult(preds)
		l.logger.Debug("Classification complete",
			"frame_seq", frame.Seq,
			"trace_id", frame.TraceID,
			"results", len(preds))
		return 0

	case ctx.Err() != nil:
		// Teardown interrupted the request; Run exits on the next check.
		return 0

	case errors.Is(err, common.ErrMalformedResult):
		l.malformed.Add(1)
		l.logger.Warn("Discarding unusable classification result",
			"frame_seq", frame.Seq,
			"error", err)
		return l.config.NotReadyDelay

	default:
		l.failures.Add(1)
		l.store.SetError(err)
		l.logger.Error("Classification failed, retrying",
			"frame_seq", frame.Seq,
			"retry_in", l.config.ErrorDelay,
			"error", err)
		return l.config.ErrorDelay
	}
}

func (l *Loop) submit(ctx context.Context, frame model.Frame) (model.Predictions, error) {
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)

	for {
		peak := l.maxInFlight.Load()
		if n <= peak || l.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	l.requests.Add(1)
	return l.classifier.Classify(ctx, frame)
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Requests:    l.requests.Load(),
		Successes:   l.successes.Load(),
		Failures:    l.failures.Load(),
		Malformed:   l.malformed.Load(),
		NotReady:    l.notReady.Load(),
		InFlight:    l.inFlight.Load(),
		MaxInFlight: l.maxInFlight.Load(),
	}
}
