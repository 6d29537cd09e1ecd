// Package readiness gates the classification loop on two independent
// startup signals: the model finished loading and the capture device
// produced its first decodable frame.
package readiness

import "sync"

// Tracker holds the two readiness flags and fires its start action exactly
// once, on whichever mark makes both flags true. Flags never revert.
type Tracker struct {
	startLoop    func()
	failure      error
	mu           sync.Mutex
	modelReady   bool
	captureReady bool
	started      bool
}

// NewTracker creates a tracker that calls startLoop when both sides are ready.
func NewTracker(startLoop func()) *Tracker {
	return &Tracker{startLoop: startLoop}
}

// MarkModelReady records that the model has loaded.
func (t *Tracker) MarkModelReady() {
	t.mark(func() { t.modelReady = true })
}

// MarkCaptureReady records that the capture device is delivering frames.
func (t *Tracker) MarkCaptureReady() {
	t.mark(func() { t.captureReady = true })
}

// Fail records a startup failure. A failed tracker never starts the loop.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failure == nil && !t.started {
		t.failure = err
	}
}

func (t *Tracker) mark(set func()) {
	t.mu.Lock()
	set()
	fire := t.modelReady && t.captureReady && !t.started && t.failure == nil
	if fire {
		t.started = true
	}
	t.mu.Unlock()

	// Called outside the lock so startLoop may read the tracker.
	if fire && t.startLoop != nil {
		t.startLoop()
	}
}

// ModelReady reports whether the model flag is set.
func (t *Tracker) ModelReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modelReady
}

// CaptureReady reports whether the capture flag is set.
func (t *Tracker) CaptureReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.captureReady
}

// Started reports whether the start action has fired.
func (t *Tracker) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Err returns the recorded startup failure, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}
