package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	cfg     *Config
	initErr error
	healthy bool
	closed  bool
}

func (s *stubProvider) ID() string                                 { return s.cfg.ID }
func (s *stubProvider) Name() string                               { return s.cfg.Name }
func (s *stubProvider) Config() *Config                            { return s.cfg }
func (s *stubProvider) ValidateCredentials(context.Context) bool   { return true }
func (s *stubProvider) TestConnection(context.Context) bool        { return true }
func (s *stubProvider) Initialize(context.Context) error           { return s.initErr }
func (s *stubProvider) HealthCheck(context.Context) (bool, error)  { return s.healthy, nil }
func (s *stubProvider) Close() error                               { s.closed = true; return nil }
func (s *stubProvider) GetData(context.Context, Params) (*Response, error) {
	return &Response{Provider: s.cfg.ID}, nil
}

func stubFactory(initErr error) Factory {
	return func(cfg *Config, _ Deps) (Provider, error) {
		return &stubProvider{cfg: cfg, initErr: initErr, healthy: true}, nil
	}
}

func newTestManager(t *testing.T) (*Manager, *Registry) {
	t.Helper()
	registry := NewRegistry()
	return NewManager(testLogger(t), registry, Deps{Logger: testLogger(t)}), registry
}

func addConfig(t *testing.T, m *Manager, id string, priority int, enabled bool, cats ...Category) {
	t.Helper()
	if len(cats) == 0 {
		cats = []Category{CategoryEquity}
	}
	require.NoError(t, m.AddConfig(&Config{
		ID:         id,
		Locator:    "stub",
		Priority:   priority,
		Enabled:    enabled,
		Categories: cats,
	}))
}

func TestAddConfigValidates(t *testing.T) {
	m, _ := newTestManager(t)

	require.Error(t, m.AddConfig(&Config{ID: "x"}), "locator required")
	require.Error(t, m.AddConfig(&Config{ID: "x", Locator: "stub"}), "category required")
	require.NoError(t, m.AddConfig(&Config{
		ID: "X Provider", Locator: "stub", Categories: []Category{CategoryNews},
	}))
	require.NotNil(t, m.Configs()[0])
	require.Equal(t, "x_provider", m.Configs()[0].ID)
}

func TestInitializeAllPriorityOrderAndIdempotence(t *testing.T) {
	m, registry := newTestManager(t)
	var order []string
	registry.Register("stub", func(cfg *Config, _ Deps) (Provider, error) {
		order = append(order, cfg.ID)
		return &stubProvider{cfg: cfg, healthy: true}, nil
	})

	addConfig(t, m, "low", 5, true)
	addConfig(t, m, "high", 1, true)
	addConfig(t, m, "mid", 3, true)
	addConfig(t, m, "off", 0, false)

	count := m.InitializeAll(context.Background())

	require.Equal(t, 3, count)
	require.Equal(t, []string{"high", "mid", "low"}, order)

	// second call is a no-op
	require.Equal(t, 3, m.InitializeAll(context.Background()))
	require.Len(t, order, 3)
}

func TestInitializeAllIsolatesFailures(t *testing.T) {
	m, registry := newTestManager(t)
	registry.Register("stub", stubFactory(nil))
	registry.Register("broken", stubFactory(errors.New("no credentials")))

	addConfig(t, m, "good", 2, true)
	require.NoError(t, m.AddConfig(&Config{
		ID: "bad", Locator: "broken", Priority: 1, Enabled: true,
		Categories: []Category{CategoryEquity},
	}))

	count := m.InitializeAll(context.Background())

	require.Equal(t, 1, count)
	require.NotNil(t, m.GetProvider("good"))
	require.Nil(t, m.GetProvider("bad"))
}

func TestGetProvidersByCategory(t *testing.T) {
	m, registry := newTestManager(t)
	registry.Register("stub", stubFactory(nil))

	addConfig(t, m, "news_only", 1, true, CategoryNews)
	addConfig(t, m, "equity_b", 2, true, CategoryEquity)
	addConfig(t, m, "equity_a", 1, true, CategoryEquity)
	m.InitializeAll(context.Background())

	equity := m.GetProvidersByCategory(CategoryEquity)
	require.Len(t, equity, 2)
	require.Equal(t, "equity_a", equity[0].ID())
	require.Equal(t, "equity_b", equity[1].ID())

	require.Empty(t, m.GetProvidersByCategory(CategoryCrypto))

	best := m.GetBestProvider(CategoryEquity)
	require.Equal(t, "equity_a", best.ID())
	require.Nil(t, m.GetBestProvider(CategoryForex))
}

func TestGetProviderNormalizesID(t *testing.T) {
	m, registry := newTestManager(t)
	registry.Register("stub", stubFactory(nil))
	addConfig(t, m, "yahoo_finance", 1, true)
	m.InitializeAll(context.Background())

	require.NotNil(t, m.GetProvider("Yahoo-Finance"))
	require.NotNil(t, m.GetProvider("yahoo finance"))
	require.Nil(t, m.GetProvider("unknown"))
}

func TestHealthCheck(t *testing.T) {
	m, _ := newTestManager(t)
	m.RegisterProvider("up", &stubProvider{
		cfg: &Config{ID: "up"}, healthy: true,
	}, []Category{CategoryEquity})
	m.RegisterProvider("down", &stubProvider{
		cfg: &Config{ID: "down"}, healthy: false,
	}, []Category{CategoryEquity})

	out := m.HealthCheck(context.Background())

	require.True(t, out["up"].Healthy)
	require.False(t, out["down"].Healthy)
}

func TestCloseAll(t *testing.T) {
	m, _ := newTestManager(t)
	p := &stubProvider{cfg: &Config{ID: "p"}, healthy: true}
	m.RegisterProvider("p", p, []Category{CategoryEquity})

	m.CloseAll()

	require.True(t, p.closed)
	require.Nil(t, m.GetProvider("p"))
	require.Empty(t, m.GetProvidersByCategory(CategoryEquity))
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubFactory(nil))

	f, err := r.Resolve("stub")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = r.Resolve("missing")
	require.Error(t, err)
	require.Equal(t, []string{"stub"}, r.Locators())
}
