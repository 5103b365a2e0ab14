package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit", func(t *testing.T) {
		l := NewSlidingWindowLimiter(2, time.Minute)

		for i := 0; i < 2; i++ {
			ok, err := l.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l := NewSlidingWindowLimiter(1, time.Minute)

		ok, _ := l.Allow(ctx, "a")
		assert.True(t, ok)
		ok, _ = l.Allow(ctx, "b")
		assert.True(t, ok)
		ok, _ = l.Allow(ctx, "a")
		assert.False(t, ok)
	})

	t.Run("window slides", func(t *testing.T) {
		l := NewSlidingWindowLimiter(1, 20*time.Millisecond)

		ok, _ := l.Allow(ctx, "k")
		assert.True(t, ok)
		ok, _ = l.Allow(ctx, "k")
		assert.False(t, ok)

		time.Sleep(30 * time.Millisecond)
		ok, _ = l.Allow(ctx, "k")
		assert.True(t, ok)
	})

	t.Run("reset clears the key", func(t *testing.T) {
		l := NewSlidingWindowLimiter(1, time.Minute)

		l.Allow(ctx, "k")
		require.NoError(t, l.Reset(ctx, "k"))
		ok, _ := l.Allow(ctx, "k")
		assert.True(t, ok)
	})
}
