package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FinFetch/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

type fakeOps struct {
	valid     bool
	fetchErrs []error
	raw       any
	calls     int
	normErr   error
	quality   Quality
}

func (f *fakeOps) ValidateRequest(Params) bool { return f.valid }

func (f *fakeOps) Fetch(ctx context.Context, _ Params) (any, error) {
	f.calls++
	if f.calls <= len(f.fetchErrs) {
		return nil, f.fetchErrs[f.calls-1]
	}
	return f.raw, nil
}

func (f *fakeOps) Normalize(raw any) (any, error) {
	if f.normErr != nil {
		return nil, f.normErr
	}
	return raw, nil
}

func (f *fakeOps) AssessQuality(any) Quality { return f.quality }

func newTestBase(t *testing.T, ops *fakeOps, retries int, sleeps *[]time.Duration) *Base {
	t.Helper()
	cfg := &Config{
		ID:         "test_provider",
		Locator:    "test",
		Retries:    retries,
		Categories: []Category{CategoryEquity},
	}
	cfg.Normalize()
	return NewBase(cfg, testLogger(t), ops,
		WithSleep(func(_ context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
			return nil
		}),
	)
}

func TestGetDataValidationFailsFast(t *testing.T) {
	ops := &fakeOps{valid: false}
	b := newTestBase(t, ops, 3, nil)

	resp, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.Nil(t, resp)
	require.Equal(t, KindValidation, KindOf(err))
	require.Zero(t, ops.calls, "fetch must not run for invalid requests")
}

func TestGetDataSuccessEnvelope(t *testing.T) {
	ops := &fakeOps{
		valid:   true,
		raw:     map[string]any{"price": 1.0},
		quality: Quality{Accuracy: 1, Completeness: 1, Timeliness: 0.5, Confidence: 0.5},
	}
	b := newTestBase(t, ops, 0, nil)

	resp, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.NoError(t, err)
	require.Equal(t, "test_provider", resp.Provider)
	require.NotEmpty(t, resp.RequestID)
	require.False(t, resp.Cached)
	require.Equal(t, 1, resp.Attempts)
	require.InDelta(t, 0.75, resp.Score, 1e-9)
}

func TestGetDataRetriesThenSucceeds(t *testing.T) {
	var sleeps []time.Duration
	ops := &fakeOps{
		valid:     true,
		fetchErrs: []error{errors.New("boom 1"), errors.New("boom 2")},
		raw:       "data",
	}
	b := newTestBase(t, ops, 3, &sleeps)

	resp, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.NoError(t, err)
	require.Equal(t, 3, resp.Attempts)
	require.Equal(t, 3, ops.calls)
	// backoff doubles per attempt: 1s after the first failure, 2s after the second
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestGetDataExhaustsRetriesReturnsLastError(t *testing.T) {
	last := errors.New("final failure")
	ops := &fakeOps{
		valid:     true,
		fetchErrs: []error{errors.New("first"), errors.New("second"), last},
	}
	b := newTestBase(t, ops, 2, nil)

	resp, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.Nil(t, resp)
	require.ErrorIs(t, err, last)
	require.Equal(t, 3, ops.calls, "retries+1 attempts")
}

func TestGetDataCacheHitSkipsFetch(t *testing.T) {
	ops := &fakeOps{valid: true, raw: "payload", quality: Quality{Confidence: 1}}
	b := newTestBase(t, ops, 0, nil)
	params := Params{"symbol": "AAPL", "data_type": "quote"}

	first, err := b.GetData(context.Background(), params)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := b.GetData(context.Background(), params)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, 1, ops.calls, "cache hit must not fetch again")
	require.Equal(t, first.Data, second.Data)
	require.NotEqual(t, first.RequestID, second.RequestID)
}

func TestGetDataCacheKeyedByParams(t *testing.T) {
	ops := &fakeOps{valid: true, raw: "payload"}
	b := newTestBase(t, ops, 0, nil)

	_, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})
	require.NoError(t, err)
	_, err = b.GetData(context.Background(), Params{"symbol": "MSFT"})
	require.NoError(t, err)

	require.Equal(t, 2, ops.calls)
}

func TestGetDataNormalizeError(t *testing.T) {
	ops := &fakeOps{valid: true, raw: "payload", normErr: errors.New("bad shape")}
	b := newTestBase(t, ops, 0, nil)

	_, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.Equal(t, KindInternal, KindOf(err))
}

func TestGetDataQualityClamped(t *testing.T) {
	ops := &fakeOps{
		valid:   true,
		raw:     "payload",
		quality: Quality{Accuracy: 1.5, Completeness: -0.2, Timeliness: 1, Confidence: 1},
	}
	b := newTestBase(t, ops, 0, nil)

	resp, err := b.GetData(context.Background(), Params{"symbol": "AAPL"})

	require.NoError(t, err)
	require.Equal(t, 1.0, resp.Quality.Accuracy)
	require.Equal(t, 0.0, resp.Quality.Completeness)
}

func TestGetDataCancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ops := &fakeOps{valid: true, fetchErrs: []error{errors.New("boom"), errors.New("boom")}}
	cfg := &Config{ID: "p", Locator: "test", Retries: 5, Categories: []Category{CategoryEquity}}
	cfg.Normalize()
	b := NewBase(cfg, testLogger(t), ops, WithSleep(func(c context.Context, _ time.Duration) error {
		cancel()
		return c.Err()
	}))

	_, err := b.GetData(ctx, Params{"symbol": "AAPL"})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, ops.calls)
}

func TestRetryable(t *testing.T) {
	require.False(t, Retryable(NewError(KindValidation, "bad")))
	require.False(t, Retryable(NewError(KindAuthorization, "denied")))
	require.False(t, Retryable(context.Canceled))
	require.True(t, Retryable(NewError(KindTimeout, "slow")))
	require.True(t, Retryable(errors.New("anything else")))
}
