package display

import (
	"time"

	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/model"
)

// Config controls the refresh cadence and slot count.
type Config struct {
	Messages Messages
	Interval time.Duration
	Slots    int
}

// DefaultConfig returns a 500ms refresh of three slots.
func DefaultConfig() Config {
	return Config{
		Interval: 500 * time.Millisecond,
		Slots:    3,
		Messages: DefaultMessages(),
	}
}

// MaxSlots bounds the configurable slot count.
const MaxSlots = 8

// Throttle copies the newest classification into display slots at most
// once per interval. It is driven by the rendering tick and only reads
// the shared result snapshot.
type Throttle struct {
	lastRefresh  time.Time
	messages     Messages
	slots        []Slot
	interval     time.Duration
	displayedSeq uint64
	seenErrSeq   uint64
	status       Status
}

// NewThrottle creates a throttle showing the loading status.
func NewThrottle(config Config) *Throttle {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Slots <= 0 {
		config.Slots = defaults.Slots
	}
	if config.Slots > MaxSlots {
		config.Slots = MaxSlots
	}

	t := &Throttle{
		interval: config.Interval,
		messages: config.Messages.withDefaults(),
		slots:    make([]Slot, config.Slots),
	}
	t.showStatus(StatusLoadingModel)
	return t
}

// Interval returns the refresh interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Messages returns the status strings in use.
func (t *Throttle) Messages() Messages {
	return t.messages
}

// State returns a copy of the current display.
func (t *Throttle) State() State {
	return State{Slots: t.slots, Status: t.status}.Clone()
}

// SetStatus applies a startup-phase status. Once classification has
// produced output the slots are owned by Refresh and this is a no-op,
// except for StatusStartupFailed which always wins.
func (t *Throttle) SetStatus(status Status) bool {
	if status == t.status {
		return false
	}
	switch {
	case status == StatusStartupFailed:
	case status.preClassification() && t.status.preClassification():
	default:
		return false
	}
	t.showStatus(status)
	return true
}

// Refresh samples the latest result. It returns true when the display changed.
func (t *Throttle) Refresh(now time.Time, snap engine.Snapshot) bool {
	if t.status == StatusStartupFailed {
		return false
	}
	// The first window opens at the first tick.
	if t.lastRefresh.IsZero() {
		t.lastRefresh = now
	}

	// Errors are surfaced as soon as they are seen.
	if snap.ErrSeq > t.seenErrSeq {
		t.seenErrSeq = snap.ErrSeq
		if snap.Failing {
			t.showStatus(StatusError)
			return true
		}
	}

	if snap.Seq <= t.displayedSeq {
		return false
	}
	if now.Sub(t.lastRefresh) <= t.interval {
		return false
	}

	if len(snap.Predictions) == 0 {
		t.displayedSeq = snap.Seq
		// Replace labels or a stale error once; other statuses stay put.
		if t.status == StatusLabels || t.status == StatusError {
			t.showStatus(StatusNoTarget)
			t.lastRefresh = now
			return true
		}
		return false
	}

	t.showPredictions(snap.Predictions)
	t.displayedSeq = snap.Seq
	t.lastRefresh = now
	return true
}

// Tick derives the startup status from the session and then refreshes.
func (t *Throttle) Tick(now time.Time, snap engine.SessionSnapshot) bool {
	if t.lastRefresh.IsZero() {
		t.lastRefresh = now
	}

	switch {
	case snap.State == engine.StateFailed:
		return t.SetStatus(StatusStartupFailed)
	case !snap.ModelReady:
		return t.SetStatus(StatusLoadingModel)
	case !snap.CaptureReady:
		return t.SetStatus(StatusWaitingCamera)
	}

	changed := t.SetStatus(StatusWaitingFirst)
	if t.Refresh(now, snap.Results) {
		changed = true
	}
	return changed
}

func (t *Throttle) showPredictions(preds model.Predictions) {
	for i := range t.slots {
		if i >= len(preds) {
			t.slots[i] = Slot{}
			continue
		}
		t.slots[i] = Slot{
			Label:          preds[i].Label,
			ConfidenceText: preds[i].ConfidenceText(),
			Confidence:     preds[i].Confidence,
		}
	}
	t.status = StatusLabels
}

func (t *Throttle) showStatus(status Status) {
	for i := range t.slots {
		t.slots[i] = Slot{}
	}
	t.slots[0].Label = t.messages.Text(status)
	t.status = status
}
