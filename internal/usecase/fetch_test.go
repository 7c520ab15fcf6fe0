package usecase

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"FinFetch/internal/provider"
	"FinFetch/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

type stubProvider struct {
	cfg   *provider.Config
	err   error
	calls atomic.Int64
}

func newStub(id string, priority int, err error) *stubProvider {
	cfg := &provider.Config{
		ID:         id,
		Locator:    "stub",
		Priority:   priority,
		Enabled:    true,
		Categories: []provider.Category{provider.CategoryEquity},
	}
	cfg.Normalize()
	return &stubProvider{cfg: cfg, err: err}
}

func (s *stubProvider) ID() string                               { return s.cfg.ID }
func (s *stubProvider) Name() string                             { return s.cfg.Name }
func (s *stubProvider) Config() *provider.Config                 { return s.cfg }
func (s *stubProvider) ValidateCredentials(context.Context) bool { return true }
func (s *stubProvider) TestConnection(context.Context) bool      { return true }

func (s *stubProvider) GetData(_ context.Context, params provider.Params) (*provider.Response, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Response{
		RequestID: "req-" + s.cfg.ID,
		Provider:  s.cfg.ID,
		Data:      params.Str("symbol"),
		Attempts:  1,
	}, nil
}

func newTestFetch(t *testing.T, providers ...*stubProvider) (*FetchUseCase, *provider.Manager) {
	t.Helper()
	m := provider.NewManager(testLogger(t), provider.NewRegistry(), provider.Deps{Logger: testLogger(t)})
	for _, p := range providers {
		m.RegisterProvider(p.ID(), p, p.cfg.Categories)
	}
	return NewFetchUseCase(m, testLogger(t)), m
}

func TestFetchPinnedProvider(t *testing.T) {
	primary := newStub("primary", 1, nil)
	backup := newStub("backup", 2, nil)
	uc, _ := newTestFetch(t, primary, backup)

	resp, err := uc.Fetch(context.Background(), FetchParams{
		Category:   provider.CategoryEquity,
		ProviderID: "backup",
		Params:     provider.Params{"symbol": "AAPL"},
	})
	require.NoError(t, err)
	require.Equal(t, "backup", resp.Provider)
	require.Equal(t, provider.CategoryEquity, resp.Category)
	require.Zero(t, primary.calls.Load())
}

func TestFetchUnknownPinnedProvider(t *testing.T) {
	uc, _ := newTestFetch(t, newStub("primary", 1, nil))

	_, err := uc.Fetch(context.Background(), FetchParams{
		Category:   provider.CategoryEquity,
		ProviderID: "nope",
	})
	require.Equal(t, provider.KindNotFound, provider.KindOf(err))
}

func TestFetchFallsOverOnRetryableFailure(t *testing.T) {
	primary := newStub("primary", 1, provider.NewError(provider.KindConnectivity, "upstream down"))
	backup := newStub("backup", 2, nil)
	uc, _ := newTestFetch(t, primary, backup)

	resp, err := uc.Fetch(context.Background(), FetchParams{
		Category: provider.CategoryEquity,
		Params:   provider.Params{"symbol": "AAPL"},
	})
	require.NoError(t, err)
	require.Equal(t, "backup", resp.Provider)
	require.Equal(t, int64(1), primary.calls.Load())
}

func TestFetchStopsFallbackOnValidationFailure(t *testing.T) {
	primary := newStub("primary", 1, provider.NewError(provider.KindValidation, "symbol required"))
	backup := newStub("backup", 2, nil)
	uc, _ := newTestFetch(t, primary, backup)

	_, err := uc.Fetch(context.Background(), FetchParams{Category: provider.CategoryEquity})
	require.Equal(t, provider.KindValidation, provider.KindOf(err))
	require.Zero(t, backup.calls.Load(), "a bad request is bad for every provider")
}

func TestFetchReturnsLastErrorWhenAllFail(t *testing.T) {
	primary := newStub("primary", 1, provider.NewError(provider.KindConnectivity, "a down"))
	backup := newStub("backup", 2, provider.NewError(provider.KindTimeout, "b slow"))
	uc, _ := newTestFetch(t, primary, backup)

	_, err := uc.Fetch(context.Background(), FetchParams{Category: provider.CategoryEquity})
	require.Equal(t, provider.KindTimeout, provider.KindOf(err))
}

func TestFetchNoCandidates(t *testing.T) {
	uc, _ := newTestFetch(t)

	_, err := uc.Fetch(context.Background(), FetchParams{Category: provider.CategoryNews})
	require.Equal(t, provider.KindNotFound, provider.KindOf(err))
}

func TestBest(t *testing.T) {
	primary := newStub("primary", 1, nil)
	backup := newStub("backup", 2, nil)
	uc, _ := newTestFetch(t, primary, backup)

	id, err := uc.Best(provider.CategoryEquity)
	require.NoError(t, err)
	require.Equal(t, "primary", id)

	_, err = uc.Best(provider.CategoryNews)
	require.Error(t, err)
}
