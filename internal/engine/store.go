package engine

import (
	"sync"
	"time"

	"github.com/Veraticus/frame-labeler/internal/model"
)

// Snapshot is a consistent view of the latest classification outcome.
type Snapshot struct {
	UpdatedAt   time.Time
	Err         error
	Predictions model.Predictions
	// Seq increases by one for every successful classification.
	Seq uint64
	// ErrSeq increases by one for every transient classification error.
	ErrSeq uint64
	// Failing is true while the most recent completion was an error.
	Failing bool
}

// HasResult reports whether at least one classification has completed.
func (s Snapshot) HasResult() bool {
	return s.Seq > 0
}

// Store holds the single latest-result slot shared by the classification
// loop (sole writer) and the display side (readers).
type Store struct {
	now     func() time.Time
	current Snapshot
	mu      sync.RWMutex
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetResult replaces the previous result entirely.
func (s *Store) SetResult(preds model.Predictions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Predictions = preds.Clone()
	if s.current.Predictions == nil {
		s.current.Predictions = model.Predictions{}
	}
	s.current.Seq++
	s.current.Failing = false
	s.current.UpdatedAt = s.now()
}

// SetError records a transient failure without touching the last result.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Err = err
	s.current.ErrSeq++
	s.current.Failing = true
	s.current.UpdatedAt = s.now()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.current
	snap.Predictions = s.current.Predictions.Clone()
	return snap
}
