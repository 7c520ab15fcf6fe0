package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FinFetch/pkg/logger"
)

// HealthStatus is one provider's health-check outcome.
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Latency   int64     `json:"latency_ms"`
}

// Status summarizes the manager's registration state.
type Status struct {
	Configured  int                   `json:"configured"`
	Initialized int                   `json:"initialized"`
	Categories  map[Category][]string `json:"categories"`
}

// Manager owns the provider fleet: configs, live instances, and the
// category index used for request routing. All methods are safe for
// concurrent use.
type Manager struct {
	mu         sync.Mutex
	log        *logger.Logger
	registry   *Registry
	deps       Deps
	configs    map[string]*Config
	providers  map[string]Provider
	categories map[Category][]string
	initDone   bool
}

// NewManager builds an empty manager. Tests construct their own
// instances; production code goes through Default.
func NewManager(log *logger.Logger, registry *Registry, deps Deps) *Manager {
	return &Manager{
		log:        log,
		registry:   registry,
		deps:       deps,
		configs:    make(map[string]*Config),
		providers:  make(map[string]Provider),
		categories: make(map[Category][]string),
	}
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager. The first caller decides
// its wiring through SetDefault; callers after that get the same
// instance regardless of arguments.
func Default(log *logger.Logger, deps Deps) *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager(log, DefaultRegistry(), deps)
	})
	return defaultManager
}

// AddConfig normalizes, validates, and stores one provider config.
// Re-adding an id replaces the stored config but not a live instance.
func (m *Manager) AddConfig(cfg *Config) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.ID] = cfg
	return nil
}

// InitializeAll instantiates every enabled configured provider in
// ascending priority order. It is idempotent: a second call is a no-op.
// One provider failing to construct or initialize never aborts the
// rest; failures are logged and the provider is skipped. The number of
// live providers is returned.
func (m *Manager) InitializeAll(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initDone {
		return len(m.providers)
	}
	m.initDone = true

	cfgs := make([]*Config, 0, len(m.configs))
	for _, c := range m.configs {
		if c.Enabled {
			cfgs = append(cfgs, c)
		}
	}
	sort.SliceStable(cfgs, func(i, j int) bool { return cfgs[i].Priority < cfgs[j].Priority })

	for _, cfg := range cfgs {
		if err := m.initOneLocked(ctx, cfg); err != nil {
			if cfg.Core() {
				m.log.Error("core provider failed to initialize",
					logger.String("provider", cfg.ID),
					logger.String("locator", cfg.Locator),
					logger.Int("priority", cfg.Priority),
					logger.Error(err))
			} else {
				m.log.Warn("provider failed to initialize",
					logger.String("provider", cfg.ID),
					logger.Error(err))
			}
			continue
		}
		if cfg.Core() {
			m.log.Info("core provider ready",
				logger.String("provider", cfg.ID),
				logger.String("name", cfg.Name),
				logger.String("locator", cfg.Locator),
				logger.Int("priority", cfg.Priority),
				logger.Int("rate_limit", cfg.RateLimit),
				logger.Any("categories", cfg.Categories))
		} else {
			m.log.Info("provider ready", logger.String("provider", cfg.ID))
		}
	}
	return len(m.providers)
}

func (m *Manager) initOneLocked(ctx context.Context, cfg *Config) error {
	factory, err := m.registry.Resolve(cfg.Locator)
	if err != nil {
		return err
	}
	p, err := factory(cfg, m.deps)
	if err != nil {
		return fmt.Errorf("construct: %w", err)
	}
	if init, ok := p.(Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
	}
	m.registerLocked(cfg.ID, p, cfg.Categories)
	return nil
}

// RegisterProvider injects an already-built provider instance, mainly
// used by tests and ad-hoc wiring.
func (m *Manager) RegisterProvider(id string, p Provider, cats []Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerLocked(NormalizeID(id), p, cats)
}

func (m *Manager) registerLocked(id string, p Provider, cats []Category) {
	m.providers[id] = p
	for _, c := range cats {
		found := false
		for _, have := range m.categories[c] {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			m.categories[c] = append(m.categories[c], id)
		}
	}
}

// GetProvider returns a live provider by id, nil when absent.
func (m *Manager) GetProvider(id string) Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.providers[NormalizeID(id)]
}

// GetProvidersByCategory returns the live, enabled providers serving a
// category, ordered by ascending priority.
func (m *Manager) GetProvidersByCategory(cat Category) []Provider {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Provider
	for _, id := range m.categories[cat] {
		p, ok := m.providers[id]
		if !ok {
			continue
		}
		if cfg := m.configs[id]; cfg != nil && !cfg.Enabled {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Config().Priority < out[j].Config().Priority
	})
	return out
}

// GetBestProvider returns the lowest-priority-number provider for a
// category, nil when none serve it.
func (m *Manager) GetBestProvider(cat Category) Provider {
	ps := m.GetProvidersByCategory(cat)
	if len(ps) == 0 {
		return nil
	}
	return ps[0]
}

// HealthCheck probes every live provider. Providers without a health
// probe are reported healthy.
func (m *Manager) HealthCheck(ctx context.Context) map[string]HealthStatus {
	m.mu.Lock()
	snapshot := make(map[string]Provider, len(m.providers))
	for id, p := range m.providers {
		snapshot[id] = p
	}
	m.mu.Unlock()

	out := make(map[string]HealthStatus, len(snapshot))
	for id, p := range snapshot {
		start := time.Now()
		status := HealthStatus{Healthy: true, CheckedAt: start.UTC()}
		if hc, ok := p.(HealthChecker); ok {
			healthy, err := hc.HealthCheck(ctx)
			status.Healthy = healthy && err == nil
			if err != nil {
				status.Error = err.Error()
			}
		}
		status.Latency = time.Since(start).Milliseconds()
		out[id] = status
	}
	return out
}

// Status reports registration counts and the category index.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	cats := make(map[Category][]string, len(m.categories))
	for c, ids := range m.categories {
		cats[c] = append([]string(nil), ids...)
	}
	return Status{
		Configured:  len(m.configs),
		Initialized: len(m.providers),
		Categories:  cats,
	}
}

// Configs returns the stored configs, ordered by ascending priority.
func (m *Manager) Configs() []*Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Config, 0, len(m.configs))
	for _, c := range m.configs {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// CloseAll shuts down every provider that supports closing and clears
// the fleet. Close errors are logged, never propagated.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.providers {
		if closer, ok := p.(Closer); ok {
			if err := closer.Close(); err != nil {
				m.log.Warn("provider close failed",
					logger.String("provider", id),
					logger.Error(err))
			}
		}
	}
	m.providers = make(map[string]Provider)
	m.categories = make(map[Category][]string)
	m.initDone = false
}
