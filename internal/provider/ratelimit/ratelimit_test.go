package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryAcquireExhaustsBurst(t *testing.T) {
	b := PerMinute(3)

	require.True(t, b.TryAcquire())
	require.True(t, b.TryAcquire())
	require.True(t, b.TryAcquire())
	require.False(t, b.TryAcquire(), "burst spent")
}

func TestRefillOverTime(t *testing.T) {
	now := time.Now()
	b := PerMinute(60) // one token per second
	b.now = func() time.Time { return now }
	b.last = now

	for i := 0; i < 60; i++ {
		require.True(t, b.TryAcquire())
	}
	require.False(t, b.TryAcquire())

	now = now.Add(2 * time.Second)
	require.True(t, b.TryAcquire())
	require.True(t, b.TryAcquire())
	require.False(t, b.TryAcquire())
}

func TestRefillCapsAtCapacity(t *testing.T) {
	now := time.Now()
	b := PerMinute(10)
	b.now = func() time.Time { return now }
	b.last = now

	now = now.Add(time.Hour)
	require.InDelta(t, 10, b.Available(), 1e-9)
}

func TestAcquireRespectsContext(t *testing.T) {
	b := PerMinute(1)
	require.NoError(t, b.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
