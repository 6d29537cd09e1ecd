package display

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/frame-labeler/internal/engine"
	"github.com/Veraticus/frame-labeler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func result(seq uint64, preds ...model.Prediction) engine.Snapshot {
	return engine.Snapshot{Seq: seq, Predictions: preds}
}

func labels(s State) []string {
	out := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.Label
	}
	return out
}

func confidences(s State) []string {
	out := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.ConfidenceText
	}
	return out
}

func readySession(results engine.Snapshot) engine.SessionSnapshot {
	return engine.SessionSnapshot{
		State:        engine.StateClassifying,
		ModelReady:   true,
		CaptureReady: true,
		Results:      results,
	}
}

func TestNewThrottle_Defaults(t *testing.T) {
	th := NewThrottle(Config{})

	assert.Equal(t, 500*time.Millisecond, th.Interval())
	state := th.State()
	require.Len(t, state.Slots, 3)
	assert.Equal(t, StatusLoadingModel, state.Status)
	assert.Equal(t, "Loading model...", state.Slots[0].Label)

	assert.Len(t, NewThrottle(Config{Slots: 20}).State().Slots, MaxSlots)
}

func TestThrottle_ExampleScenario(t *testing.T) {
	th := NewThrottle(DefaultConfig())

	// model ready at t=0, capture ready at t=10ms, first result at t=60ms
	th.Tick(at(0), engine.SessionSnapshot{ModelReady: true})
	assert.Equal(t, StatusWaitingCamera, th.State().Status)

	th.Tick(at(10), readySession(engine.Snapshot{}))
	assert.Equal(t, StatusWaitingFirst, th.State().Status)

	first := result(1,
		model.Prediction{Label: "cat", Confidence: 0.91},
		model.Prediction{Label: "dog", Confidence: 0.05},
	)
	assert.False(t, th.Tick(at(100), readySession(first)), "still inside the first window")
	assert.Equal(t, StatusWaitingFirst, th.State().Status)

	assert.True(t, th.Tick(at(561), readySession(first)))
	state := th.State()
	assert.Equal(t, StatusLabels, state.Status)
	assert.Equal(t, []string{"cat", "dog", ""}, labels(state))
	assert.Equal(t, []string{"0.91", "0.05", ""}, confidences(state))
}

func TestThrottle_OnlyLastCompletionInWindowIsShown(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	th.Refresh(at(0), engine.Snapshot{})
	require.True(t, th.Refresh(at(600), result(1, model.Prediction{Label: "first", Confidence: 0.9})))

	changes := 0
	for i := 2; i <= 11; i++ {
		snap := result(uint64(i), model.Prediction{Label: "label-" + string(rune('a'+i)), Confidence: 0.5})
		if th.Refresh(at(600+i*40), snap) {
			changes++
		}
	}
	assert.Equal(t, 0, changes, "ten completions inside one window must not change the display")
	assert.Equal(t, "first", th.State().Slots[0].Label)

	last := result(11, model.Prediction{Label: "last", Confidence: 0.7})
	assert.True(t, th.Refresh(at(1101), last))
	assert.Equal(t, "last", th.State().Slots[0].Label)
	assert.False(t, th.Refresh(at(1700), last), "same result is not re-applied")
}

func TestThrottle_ClearsSlotsBeyondResults(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	th.Refresh(at(0), engine.Snapshot{})

	th.Refresh(at(501), result(1,
		model.Prediction{Label: "a", Confidence: 0.6},
		model.Prediction{Label: "b", Confidence: 0.3},
		model.Prediction{Label: "c", Confidence: 0.1},
	))
	assert.Equal(t, []string{"a", "b", "c"}, labels(th.State()))

	th.Refresh(at(1002), result(2, model.Prediction{Label: "a", Confidence: 1.0}))
	state := th.State()
	assert.Equal(t, []string{"a", "", ""}, labels(state))
	assert.Equal(t, []string{"1.00", "", ""}, confidences(state))
	assert.True(t, state.Slots[1].Empty())
}

func TestThrottle_FewerClassesThanSlots(t *testing.T) {
	th := NewThrottle(Config{Slots: 4})
	th.Refresh(at(0), engine.Snapshot{})

	require.NotPanics(t, func() {
		th.Refresh(at(501), result(1,
			model.Prediction{Label: "yes", Confidence: 0.8234},
			model.Prediction{Label: "no", Confidence: 0.1766},
		))
	})
	assert.Equal(t, []string{"0.82", "0.18", "", ""}, confidences(th.State()))
}

func TestThrottle_NoTarget(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	th.Refresh(at(0), engine.Snapshot{})

	t.Run("empty before any labels keeps waiting status", func(t *testing.T) {
		th.SetStatus(StatusWaitingFirst)
		assert.False(t, th.Refresh(at(10), result(1)))
		assert.Equal(t, StatusWaitingFirst, th.State().Status)
	})

	t.Run("labels then empty switches once", func(t *testing.T) {
		th.Refresh(at(600), result(2, model.Prediction{Label: "cat", Confidence: 0.9}))
		require.Equal(t, StatusLabels, th.State().Status)

		assert.False(t, th.Refresh(at(610), result(3)), "no target waits for the next window")
		assert.Equal(t, StatusLabels, th.State().Status)

		assert.True(t, th.Refresh(at(1101), result(3)))
		state := th.State()
		assert.Equal(t, StatusNoTarget, state.Status)
		assert.Equal(t, []string{"No target", "", ""}, labels(state))

		assert.False(t, th.Refresh(at(1700), result(4)))
		assert.Equal(t, StatusNoTarget, th.State().Status)
	})

	t.Run("results return after no target", func(t *testing.T) {
		assert.True(t, th.Refresh(at(1800), result(5, model.Prediction{Label: "dog", Confidence: 0.4})))
		assert.Equal(t, StatusLabels, th.State().Status)
	})
}

func TestThrottle_ErrorStatus(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	th.Refresh(at(0), engine.Snapshot{})
	th.Refresh(at(600), result(1, model.Prediction{Label: "cat", Confidence: 0.9}))

	failing := engine.Snapshot{
		Seq:         1,
		Predictions: model.Predictions{{Label: "cat", Confidence: 0.9}},
		Err:         errors.New("timeout"),
		ErrSeq:      1,
		Failing:     true,
	}
	assert.True(t, th.Refresh(at(650), failing), "errors are not throttled")
	state := th.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "Classification error", state.Slots[0].Label)
	assert.Equal(t, "", state.Slots[0].ConfidenceText)

	assert.False(t, th.Refresh(at(700), failing), "same error is shown once")
	assert.False(t, th.Refresh(at(1300), failing), "stale result does not hide the error")

	recovered := result(2, model.Prediction{Label: "dog", Confidence: 0.7})
	recovered.ErrSeq = 1
	assert.True(t, th.Refresh(at(1400), recovered))
	assert.Equal(t, StatusLabels, th.State().Status)
}

func TestThrottle_SetStatus(t *testing.T) {
	th := NewThrottle(Config{Messages: Messages{WaitingCamera: "カメラ準備中..."}})

	assert.True(t, th.SetStatus(StatusWaitingCamera))
	assert.Equal(t, "カメラ準備中...", th.State().Slots[0].Label)
	assert.False(t, th.SetStatus(StatusWaitingCamera))
	assert.False(t, th.SetStatus(StatusLabels), "labels come only from results")

	th.Refresh(at(0), engine.Snapshot{})
	th.Refresh(at(501), result(1, model.Prediction{Label: "cat", Confidence: 0.9}))
	assert.False(t, th.SetStatus(StatusWaitingFirst), "startup statuses never hide results")
	assert.Equal(t, "cat", th.State().Slots[0].Label)

	assert.True(t, th.SetStatus(StatusStartupFailed))
	assert.False(t, th.Refresh(at(2000), result(2, model.Prediction{Label: "dog", Confidence: 0.9})))
	assert.Equal(t, "Startup failed", th.State().Slots[0].Label)
}

func TestThrottle_TickStartupFailure(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	th.Tick(at(0), engine.SessionSnapshot{State: engine.StateFailed})

	assert.Equal(t, StatusStartupFailed, th.State().Status)
}

func TestState_CloneIsIndependent(t *testing.T) {
	th := NewThrottle(DefaultConfig())
	state := th.State()
	state.Slots[0].Label = "mutated"

	assert.Equal(t, "Loading model...", th.State().Slots[0].Label)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "no-target", StatusNoTarget.String())
	assert.Equal(t, "status(42)", Status(42).String())
}
