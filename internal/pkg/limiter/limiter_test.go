package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestKeyedLimiter_SeparateBuckets(t *testing.T) {
	l := NewKeyedLimiter(rate.Limit(1), 1)

	assert.True(t, l.GetLimiter(KeyPoll).Allow())
	assert.False(t, l.GetLimiter(KeyPoll).Allow(), "poll bucket should be drained")
	assert.True(t, l.GetLimiter(KeyAction).Allow(), "action bucket is independent")
	assert.Same(t, l.GetLimiter(KeyPoll), l.GetLimiter(KeyPoll))
}

func TestKeyedLimiter_WaitHonoursContext(t *testing.T) {
	l := NewKeyedLimiter(rate.Limit(0.001), 1)
	require.NoError(t, l.Wait(context.Background(), KeyAction))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, KeyAction))
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	l := NewKeyedLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), KeyPoll))
	}

	var nilLimiter *KeyedLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), KeyPoll))
}
