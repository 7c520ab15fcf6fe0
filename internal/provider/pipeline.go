package provider

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"FinFetch/internal/provider/ratelimit"
	"FinFetch/internal/provider/respcache"
	"FinFetch/pkg/logger"
	"FinFetch/pkg/metrics"
)

const defaultCacheSize = 1024

type cached struct {
	data    any
	quality Quality
}

// Base sequences the provider-specific Operations through the shared
// resilience pipeline: request id, structural validation, cache lookup,
// rate limiting, fetch with retry and exponential backoff, normalize,
// quality scoring, envelope. Concrete providers embed Base and supply
// Operations.
type Base struct {
	cfg      *Config
	log      *logger.Logger
	ops      Operations
	limiter  *ratelimit.Bucket
	cache    *respcache.Cache
	recorder *metrics.Recorder

	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// BaseOption tunes pipeline behaviour, mainly for tests.
type BaseOption func(*Base)

// WithBackoffBase overrides the one-second backoff unit.
func WithBackoffBase(d time.Duration) BaseOption {
	return func(b *Base) { b.backoffBase = d }
}

// WithSleep replaces the backoff sleeper.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) BaseOption {
	return func(b *Base) { b.sleep = fn }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *metrics.Recorder) BaseOption {
	return func(b *Base) { b.recorder = r }
}

// NewBase wires the pipeline for one provider config. cfg must already
// be normalized.
func NewBase(cfg *Config, log *logger.Logger, ops Operations, opts ...BaseOption) *Base {
	b := &Base{
		cfg:         cfg,
		log:         log,
		ops:         ops,
		limiter:     ratelimit.PerMinute(cfg.RateLimit),
		cache:       respcache.New(cfg.CacheTTL, defaultCacheSize),
		backoffBase: time.Second,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Base) ID() string      { return b.cfg.ID }
func (b *Base) Name() string    { return b.cfg.Name }
func (b *Base) Config() *Config { return b.cfg }

// FlushCache drops all cached responses for this provider.
func (b *Base) FlushCache() { b.cache.Flush() }

// GetData runs one request through the full pipeline. Validation
// failures and cache hits never consume a rate-limit token; when every
// fetch attempt fails, the last error propagates unwrapped.
func (b *Base) GetData(ctx context.Context, params Params) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	if !b.ops.ValidateRequest(params) {
		b.log.Warn("request validation failed",
			logger.String("provider", b.cfg.ID),
			logger.String("request_id", requestID))
		return nil, NewError(KindValidation, "invalid request parameters for provider %s", b.cfg.ID)
	}

	key := params.CacheKey()
	if hit, ok := b.cache.Get(key); ok {
		c := hit.(cached)
		b.log.Debug("cache hit",
			logger.String("provider", b.cfg.ID),
			logger.String("request_id", requestID))
		return b.envelope(requestID, c.data, c.quality, true, 0, start), nil
	}

	if err := b.limiter.Acquire(ctx); err != nil {
		return nil, WrapError(KindRateLimited, err, "rate limit wait aborted for provider %s", b.cfg.ID)
	}

	raw, attempts, err := b.fetchWithRetry(ctx, requestID, params)
	if err != nil {
		if b.recorder != nil {
			b.recorder.RecordError(string(KindOf(err)))
		}
		return nil, err
	}

	normalized, err := b.ops.Normalize(raw)
	if err != nil {
		return nil, WrapError(KindInternal, err, "normalization failed for provider %s", b.cfg.ID)
	}

	quality := b.ops.AssessQuality(normalized).Clamp()
	resp := b.envelope(requestID, normalized, quality, false, attempts, start)
	b.cache.Set(key, cached{data: normalized, quality: quality})

	if b.recorder != nil {
		b.recorder.RecordQuality(b.cfg.ID, quality.Overall())
		b.recorder.RecordLatency("provider_fetch", time.Since(start).Seconds())
	}
	return resp, nil
}

// fetchWithRetry executes up to retries+1 attempts with exponential
// backoff between them. Each attempt gets its own timeout; when the
// parent context itself is done, the loop stops immediately.
func (b *Base) fetchWithRetry(ctx context.Context, requestID string, params Params) (any, int, error) {
	var lastErr error
	attempts := b.cfg.Retries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
		raw, err := b.ops.Fetch(attemptCtx, params)
		cancel()
		if err == nil {
			return raw, attempt + 1, nil
		}
		if ctx.Err() != nil {
			return nil, attempt + 1, ctx.Err()
		}
		lastErr = err
		b.log.Warn("fetch attempt failed",
			logger.String("provider", b.cfg.ID),
			logger.String("request_id", requestID),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", attempts),
			logger.Error(err))

		if attempt < attempts-1 {
			backoff := b.backoffBase << uint(attempt)
			if err := b.sleep(ctx, backoff); err != nil {
				return nil, attempt + 1, err
			}
		}
	}
	return nil, attempts, lastErr
}

func (b *Base) envelope(requestID string, data any, q Quality, fromCache bool, attempts int, start time.Time) *Response {
	return &Response{
		RequestID: requestID,
		Provider:  b.cfg.ID,
		Data:      data,
		Quality:   q,
		Score:     q.Overall(),
		Cached:    fromCache,
		Attempts:  attempts,
		Latency:   time.Since(start).Milliseconds(),
		FetchedAt: time.Now().UTC(),
	}
}

// Retryable reports whether an error kind is worth another attempt at a
// level above the pipeline, such as provider failover.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindValidation, KindAuthorization:
		return false
	}
	return true
}
