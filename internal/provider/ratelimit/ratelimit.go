// Package ratelimit implements a context-aware token bucket used to
// pace outbound provider calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket that refills continuously at a fixed rate.
// Acquire blocks until a token is available or the context is done, so
// callers never busy-wait and a slow vendor quota backpressures the
// pipeline instead of tripping vendor-side bans.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64 // tokens per second
	last     time.Time
	now      func() time.Time
}

// PerMinute builds a bucket from a requests-per-minute quota. The burst
// capacity equals the quota so a cold bucket can absorb a full window.
func PerMinute(quota int) *Bucket {
	if quota <= 0 {
		quota = 60
	}
	return &Bucket{
		capacity: float64(quota),
		tokens:   float64(quota),
		rate:     float64(quota) / 60.0,
		last:     time.Now(),
		now:      time.Now,
	}
}

func (b *Bucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.rate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
}

// TryAcquire takes a token without blocking. It reports false when the
// bucket is empty.
func (b *Bucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(b.now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Acquire blocks until a token is available or ctx is done.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		b.refillLocked(now)
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current token count, for introspection.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(b.now())
	return b.tokens
}
