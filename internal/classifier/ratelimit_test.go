package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("nil limiter never blocks", func(t *testing.T) {
		rl := newRateLimiter(0)
		assert.Nil(t, rl)
		assert.True(t, rl.tryAcquire())
		require.NoError(t, rl.wait(context.Background()))
	})

	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(5)
		frozen := time.Now()
		rl.now = func() time.Time { return frozen }
		rl.lastRefill = frozen

		for i := 0; i < 5; i++ {
			assert.True(t, rl.tryAcquire(), "attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refills over time", func(t *testing.T) {
		rl := newRateLimiter(60)
		clock := time.Now()
		rl.now = func() time.Time { return clock }
		rl.lastRefill = clock

		for rl.tryAcquire() {
		}

		clock = clock.Add(1500 * time.Millisecond)
		assert.True(t, rl.tryAcquire())
		assert.False(t, rl.tryAcquire())

		clock = clock.Add(time.Hour)
		for i := 0; i < 60; i++ {
			require.True(t, rl.tryAcquire())
		}
		assert.False(t, rl.tryAcquire(), "refill is capped at capacity")
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- rl.wait(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rate limiter canceled")
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not return after cancel")
		}
	})
}
