package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/Veraticus/frame-labeler/internal/readiness"
	"github.com/google/uuid"
)

// State is the session-level lifecycle state.
type State int

const (
	// StateLoading waits for the model and the capture device.
	StateLoading State = iota
	// StateWaitingFirst has started the loop but has no outcome yet.
	StateWaitingFirst
	// StateClassifying is the steady state.
	StateClassifying
	// StateError means the latest classification failed; the loop is retrying.
	StateError
	// StateFailed means startup failed. It is terminal.
	StateFailed
	// StateStopped means the session was torn down.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateWaitingFirst:
		return "waiting-first"
	case StateClassifying:
		return "classifying"
	case StateError:
		return "error"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionSnapshot is everything the display side reads during a tick.
type SessionSnapshot struct {
	StartupErr   error
	Frame        model.Frame
	ID           string
	Model        model.ModelInfo
	Results      Snapshot
	Stats        LoopStats
	State        State
	ModelReady   bool
	CaptureReady bool
	HasFrame     bool
}

// Session wires a classifier and a frame source through the readiness
// tracker into a classification loop.
type Session struct {
	classifier Classifier
	source     FrameSource
	startupErr error
	ctx        context.Context
	store      *Store
	loop       *Loop
	tracker    *readiness.Tracker
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
	id         string
	info       model.ModelInfo
	mu         sync.Mutex
	stopped    bool
}

// NewSession creates a session. Nothing runs until Start.
func NewSession(classifier Classifier, source FrameSource, config LoopConfig) *Session {
	id := uuid.NewString()
	logger := slog.Default().With("session_id", id)
	store := NewStore()

	s := &Session{
		id:         id,
		classifier: classifier,
		source:     source,
		store:      store,
		logger:     logger,
		done:       make(chan struct{}),
	}
	s.loop = NewLoop(classifier, source, store, config).WithLogger(logger)
	s.tracker = readiness.NewTracker(s.startLoop)
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Start loads the model and opens the capture device concurrently. The
// loop starts once both are ready. Start does not block.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	s.logger.Info("Starting session")

	go s.loadModel(runCtx)

	if err := s.source.Open(runCtx, s.onCaptureReady); err != nil {
		s.fail(common.NewStartupError("capture", fmt.Errorf("%w: %w", common.ErrCaptureOpen, err)))
		return s.StartupErr()
	}

	return nil
}

func (s *Session) loadModel(ctx context.Context) {
	info, err := s.classifier.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(common.NewStartupError("model", fmt.Errorf("%w: %w", common.ErrModelLoad, err)))
		return
	}

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()

	s.logger.Info("Model loaded", "model", info.Name, "labels", len(info.Labels))
	s.tracker.MarkModelReady()
}

func (s *Session) onCaptureReady() {
	s.logger.Info("Capture ready")
	s.tracker.MarkCaptureReady()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.startupErr == nil {
		s.startupErr = err
	}
	s.mu.Unlock()

	s.tracker.Fail(err)
	common.LogError(err, "Session startup failed", common.Fields{"session_id": s.id})
}

// startLoop is fired exactly once by the readiness tracker.
func (s *Session) startLoop() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info("Model and capture ready, starting classification loop")
	go func() {
		defer close(s.done)
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Classification loop exited", "error", err)
		}
	}()
}

// StartupErr returns the startup failure, if any.
func (s *Session) StartupErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startupErr
}

// Snapshot returns a consistent view of the session for one render tick.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	snap := SessionSnapshot{
		ID:         s.id,
		Model:      s.info,
		StartupErr: s.startupErr,
	}
	stopped := s.stopped
	s.mu.Unlock()

	snap.ModelReady = s.tracker.ModelReady()
	snap.CaptureReady = s.tracker.CaptureReady()
	snap.Results = s.store.Snapshot()
	snap.Stats = s.loop.Stats()

	if snap.CaptureReady {
		if frame, err := s.source.Latest(); err == nil && frame.Decodable() {
			snap.Frame = frame
			snap.HasFrame = true
		}
	}

	switch {
	case stopped:
		snap.State = StateStopped
	case snap.StartupErr != nil:
		snap.State = StateFailed
	case !s.tracker.Started():
		snap.State = StateLoading
	case snap.Results.Failing:
		snap.State = StateError
	case !snap.Results.HasResult():
		snap.State = StateWaitingFirst
	default:
		snap.State = StateClassifying
	}

	return snap
}

// Stop tears the session down: cancels the loop, waits for it and closes
// the capture device. Safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s.tracker.Started() {
		<-s.done
	}

	if err := s.source.Close(); err != nil {
		return fmt.Errorf("failed to close capture device: %w", err)
	}

	s.logger.Info("Session stopped")
	return nil
}
