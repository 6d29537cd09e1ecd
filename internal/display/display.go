// Package display turns classification outcomes into the stable text shown
// on screen. It refreshes on its own cadence, independent of how often the
// classification loop completes.
package display

import "fmt"

// Status describes what the first label slot is currently conveying.
type Status int

const (
	// StatusLoadingModel is shown until the model has loaded.
	StatusLoadingModel Status = iota
	// StatusWaitingCamera is shown when the model is ready but capture is not.
	StatusWaitingCamera
	// StatusWaitingFirst is shown until the first classification completes.
	StatusWaitingFirst
	// StatusLabels means the slots hold classification results.
	StatusLabels
	// StatusNoTarget means the latest classification returned nothing.
	StatusNoTarget
	// StatusError means the latest classification failed.
	StatusError
	// StatusStartupFailed means the session will never classify.
	StatusStartupFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoadingModel:
		return "loading-model"
	case StatusWaitingCamera:
		return "waiting-camera"
	case StatusWaitingFirst:
		return "waiting-first"
	case StatusLabels:
		return "labels"
	case StatusNoTarget:
		return "no-target"
	case StatusError:
		return "error"
	case StatusStartupFailed:
		return "startup-failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// preClassification reports whether s belongs to the startup phase.
func (s Status) preClassification() bool {
	return s == StatusLoadingModel || s == StatusWaitingCamera || s == StatusWaitingFirst
}

// Messages holds the user-facing text for each non-label status.
type Messages struct {
	LoadingModel  string `mapstructure:"loading_model"`
	WaitingCamera string `mapstructure:"waiting_camera"`
	WaitingFirst  string `mapstructure:"waiting_first"`
	NoTarget      string `mapstructure:"no_target"`
	Error         string `mapstructure:"error"`
	StartupFailed string `mapstructure:"startup_failed"`
}

// DefaultMessages returns the English status strings.
func DefaultMessages() Messages {
	return Messages{
		LoadingModel:  "Loading model...",
		WaitingCamera: "Preparing camera...",
		WaitingFirst:  "Waiting for classification...",
		NoTarget:      "No target",
		Error:         "Classification error",
		StartupFailed: "Startup failed",
	}
}

// withDefaults fills empty fields from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.LoadingModel == "" {
		m.LoadingModel = d.LoadingModel
	}
	if m.WaitingCamera == "" {
		m.WaitingCamera = d.WaitingCamera
	}
	if m.WaitingFirst == "" {
		m.WaitingFirst = d.WaitingFirst
	}
	if m.NoTarget == "" {
		m.NoTarget = d.NoTarget
	}
	if m.Error == "" {
		m.Error = d.Error
	}
	if m.StartupFailed == "" {
		m.StartupFailed = d.StartupFailed
	}
	return m
}

// Text returns the message for status, or "" for StatusLabels.
func (m Messages) Text(status Status) string {
	switch status {
	case StatusLoadingModel:
		return m.LoadingModel
	case StatusWaitingCamera:
		return m.WaitingCamera
	case StatusWaitingFirst:
		return m.WaitingFirst
	case StatusNoTarget:
		return m.NoTarget
	case StatusError:
		return m.Error
	case StatusStartupFailed:
		return m.StartupFailed
	default:
		return ""
	}
}

// Slot is one label/confidence pair as it appears on screen.
type Slot struct {
	Label          string
	ConfidenceText string
	// Confidence is the raw value behind ConfidenceText, 0 for empty slots.
	Confidence float64
}

// Empty reports whether the slot shows nothing.
func (s Slot) Empty() bool {
	return s.Label == "" && s.ConfidenceText == ""
}

// State is what the renderer draws: a status and K slots.
type State struct {
	Slots  []Slot
	Status Status
}

// Clone returns a copy safe to hand to another goroutine.
func (s State) Clone() State {
	slots := make([]Slot, len(s.Slots))
	copy(slots, s.Slots)
	return State{Slots: slots, Status: s.Status}
}
