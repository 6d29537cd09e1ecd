package readiness

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_StartsOnce(t *testing.T) {
	tests := []struct {
		name  string
		marks []string
	}{
		{name: "model then capture", marks: []string{"model", "capture"}},
		{name: "capture then model", marks: []string{"capture", "model"}},
		{name: "repeated marks", marks: []string{"model", "model", "capture", "capture", "model"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var starts int
			tracker := NewTracker(func() { starts++ })

			for _, m := range tt.marks {
				switch m {
				case "model":
					tracker.MarkModelReady()
				case "capture":
					tracker.MarkCaptureReady()
				}
			}

			assert.Equal(t, 1, starts)
			assert.True(t, tracker.Started())
			assert.True(t, tracker.ModelReady())
			assert.True(t, tracker.CaptureReady())
		})
	}
}

func TestTracker_NeverStartsWithOneFlag(t *testing.T) {
	var starts int
	tracker := NewTracker(func() { starts++ })

	tracker.MarkModelReady()
	tracker.MarkModelReady()

	assert.Equal(t, 0, starts)
	assert.True(t, tracker.ModelReady())
	assert.False(t, tracker.CaptureReady())
	assert.False(t, tracker.Started())

	other := NewTracker(func() { starts++ })
	other.MarkCaptureReady()
	assert.Equal(t, 0, starts)
}

func TestTracker_FailureBlocksStart(t *testing.T) {
	var starts int
	tracker := NewTracker(func() { starts++ })

	tracker.MarkModelReady()
	tracker.Fail(errors.New("camera unplugged"))
	tracker.MarkCaptureReady()

	assert.Equal(t, 0, starts)
	assert.EqualError(t, tracker.Err(), "camera unplugged")
}

func TestTracker_FailAfterStartIsIgnored(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.MarkModelReady()
	tracker.MarkCaptureReady()
	tracker.Fail(errors.New("late"))

	assert.NoError(t, tracker.Err())
}

func TestTracker_ConcurrentMarks(t *testing.T) {
	for i := 0; i < 50; i++ {
		var starts atomic.Int32
		tracker := NewTracker(func() { starts.Add(1) })

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.MarkModelReady()
		}()
		go func() {
			defer wg.Done()
			tracker.MarkCaptureReady()
		}()
		wg.Wait()

		assert.Equal(t, int32(1), starts.Load())
	}
}
