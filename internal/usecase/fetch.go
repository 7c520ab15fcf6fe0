package usecase

import (
	"context"
	"fmt"
	"time"

	"FinFetch/internal/models"
	"FinFetch/internal/provider"
	"FinFetch/pkg/kafka"
	"FinFetch/pkg/logger"
	"FinFetch/pkg/metrics"
)

// FetchUseCase routes fetch requests to providers by category with
// priority fallback, records metrics, and publishes completion events.
type FetchUseCase struct {
	manager  *provider.Manager
	log      *logger.Logger
	recorder *metrics.Recorder
	producer *kafka.Producer
	topic    string
}

// FetchOption configures the use case.
type FetchOption func(*FetchUseCase)

// WithEvents enables fetch-completion events on the topic.
func WithEvents(p *kafka.Producer, topic string) FetchOption {
	return func(uc *FetchUseCase) {
		uc.producer = p
		uc.topic = topic
	}
}

// WithRecorder attaches the Prometheus recorder.
func WithRecorder(r *metrics.Recorder) FetchOption {
	return func(uc *FetchUseCase) {
		uc.recorder = r
	}
}

func NewFetchUseCase(manager *provider.Manager, log *logger.Logger, opts ...FetchOption) *FetchUseCase {
	uc := &FetchUseCase{
		manager: manager,
		log:     log.Named("fetch"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// FetchParams describes one routed fetch.
type FetchParams struct {
	Category   provider.Category
	ProviderID string // optional pin to one provider
	Params     provider.Params
}

// Fetch resolves a provider for the category and runs the request.
// Without a pinned provider it walks candidates in priority order and
// falls over to the next one on retryable failures.
func (uc *FetchUseCase) Fetch(ctx context.Context, p FetchParams) (*provider.Response, error) {
	if p.ProviderID != "" {
		prov := uc.manager.GetProvider(p.ProviderID)
		if prov == nil {
			return nil, provider.NewError(provider.KindNotFound, "provider '%s' is not available", p.ProviderID)
		}
		return uc.fetchOne(ctx, prov, p)
	}

	candidates := uc.manager.GetProvidersByCategory(p.Category)
	if len(candidates) == 0 {
		return nil, provider.NewError(provider.KindNotFound, "no providers available for category '%s'", p.Category)
	}

	var lastErr error
	for _, prov := range candidates {
		resp, err := uc.fetchOne(ctx, prov, p)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !provider.Retryable(err) {
			break
		}
		uc.log.Warn("provider failed, trying next",
			logger.String("provider", prov.ID()),
			logger.String("category", string(p.Category)),
			logger.Error(err))
	}
	return nil, lastErr
}

func (uc *FetchUseCase) fetchOne(ctx context.Context, prov provider.Provider, p FetchParams) (*provider.Response, error) {
	start := time.Now()
	resp, err := prov.GetData(ctx, p.Params)

	if uc.recorder != nil {
		uc.recorder.RecordFetch(prov.ID(), string(p.Category))
		if err != nil {
			uc.recorder.RecordError(string(provider.KindOf(err)))
		}
	}

	event := models.FetchEvent{
		Provider:  prov.ID(),
		Category:  string(p.Category),
		Success:   err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		At:        time.Now().UTC(),
	}
	if err != nil {
		event.ErrorKind = string(provider.KindOf(err))
	} else {
		event.RequestID = resp.RequestID
		event.Cached = resp.Cached
		event.Attempts = resp.Attempts
		event.Quality = resp.Score
		resp.Category = p.Category
	}
	uc.publishEvent(event)

	return resp, err
}

// publishEvent is best effort: a broker outage never fails a fetch.
func (uc *FetchUseCase) publishEvent(event models.FetchEvent) {
	if uc.producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.producer.Publish(ctx, uc.topic, []byte(event.Provider), event); err != nil {
			uc.log.Warn("fetch event publish failed", logger.Error(err))
		}
	}()
}

// Providers lists the configured fleet with live status.
func (uc *FetchUseCase) Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0)
	for _, cfg := range uc.manager.Configs() {
		info := ProviderInfo{
			ID:         cfg.ID,
			Name:       cfg.Name,
			Locator:    cfg.Locator,
			Enabled:    cfg.Enabled,
			Priority:   cfg.Priority,
			Categories: cfg.Categories,
			Regions:    cfg.Regions,
			RateLimit:  cfg.RateLimit,
			Live:       uc.manager.GetProvider(cfg.ID) != nil,
		}
		out = append(out, info)
	}
	return out
}

// ProviderInfo is the public view of one configured provider.
type ProviderInfo struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Locator    string              `json:"locator"`
	Enabled    bool                `json:"enabled"`
	Priority   int                 `json:"priority"`
	Categories []provider.Category `json:"categories"`
	Regions    []provider.Region   `json:"regions"`
	RateLimit  int                 `json:"rate_limit"`
	Live       bool                `json:"live"`
}

// Health runs the fleet health check.
func (uc *FetchUseCase) Health(ctx context.Context) map[string]provider.HealthStatus {
	return uc.manager.HealthCheck(ctx)
}

// Best returns the id of the preferred provider for a category.
func (uc *FetchUseCase) Best(category provider.Category) (string, error) {
	p := uc.manager.GetBestProvider(category)
	if p == nil {
		return "", fmt.Errorf("no providers available for category '%s'", category)
	}
	return p.ID(), nil
}
