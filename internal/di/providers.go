package di

import (
	"fmt"
	"time"

	"FinFetch/internal/handler/api"
	"FinFetch/internal/provider"
	"FinFetch/internal/provider/finnhub"
	"FinFetch/internal/provider/yahoo"
	"FinFetch/internal/usecase"
	pkgcache "FinFetch/pkg/cache"
	"FinFetch/pkg/config"
	xhttp "FinFetch/pkg/http"
	"FinFetch/pkg/http/middleware"
	pkgkafka "FinFetch/pkg/kafka"
	applogger "FinFetch/pkg/logger"
	appmetrics "FinFetch/pkg/metrics"
	"FinFetch/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideCacheService picks the response cache backend.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	newRedis := func() (*pkgcache.RedisCache, error) {
		return pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
	}
	switch cfg.Cache.Backend {
	case "redis":
		return newRedis()
	case "layered":
		rc, err := newRedis()
		if err != nil {
			return nil, err
		}
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MaxSize),
		), nil
	default:
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MaxSize),
		), nil
	}
}

// ProvideKafkaProducer creates the event producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideStats creates the in-process request stats collector.
func ProvideStats() *appmetrics.Service {
	return appmetrics.NewService()
}

// ProvideRecorder creates the Prometheus recorder.
func ProvideRecorder() *appmetrics.Recorder {
	return appmetrics.NewRecorder()
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
}

// ProvideRegistry builds the locator registry with the built-in
// provider factories.
func ProvideRegistry() *provider.Registry {
	r := provider.NewRegistry()
	r.Register(yahoo.Locator, yahoo.New)
	r.Register(finnhub.Locator, finnhub.New)
	return r
}

// ProvideManager builds the provider manager and loads every
// configured provider entry.
func ProvideManager(
	cfg *config.Config,
	log *applogger.Logger,
	registry *provider.Registry,
	client *xhttp.Client,
	recorder *appmetrics.Recorder,
) (*provider.Manager, error) {
	m := provider.NewManager(log.Named("manager"), registry, provider.Deps{
		Logger:     log,
		HTTPClient: client,
		Recorder:   recorder,
	})
	for _, entry := range cfg.Providers {
		pc, err := toProviderConfig(entry)
		if err != nil {
			return nil, err
		}
		if err := m.AddConfig(pc); err != nil {
			return nil, fmt.Errorf("provider %s: %w", entry.ID, err)
		}
	}
	return m, nil
}

func toProviderConfig(entry config.ProviderEntry) (*provider.Config, error) {
	categories := make([]provider.Category, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		cat, err := provider.ParseCategory(c)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", entry.ID, err)
		}
		categories = append(categories, cat)
	}
	regions := make([]provider.Region, 0, len(entry.Regions))
	for _, r := range entry.Regions {
		reg, err := provider.ParseRegion(r)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", entry.ID, err)
		}
		regions = append(regions, reg)
	}
	return &provider.Config{
		ID:         entry.ID,
		Name:       entry.Name,
		Locator:    entry.Locator,
		BaseURL:    entry.BaseURL,
		APIKey:     entry.APIKey,
		RateLimit:  entry.RateLimit,
		Timeout:    entry.Timeout,
		Retries:    entry.Retries,
		Enabled:    entry.Enabled,
		Priority:   entry.Priority,
		Categories: categories,
		Regions:    regions,
		CacheTTL:   entry.CacheTTL,
		Params:     entry.Params,
	}, nil
}

// ProvideFetchUseCase wires routing, metrics, and event publishing.
func ProvideFetchUseCase(
	cfg *config.Config,
	log *applogger.Logger,
	manager *provider.Manager,
	producer *pkgkafka.Producer,
	recorder *appmetrics.Recorder,
) *usecase.FetchUseCase {
	opts := []usecase.FetchOption{usecase.WithRecorder(recorder)}
	if producer != nil && cfg.Kafka.Topic != "" {
		opts = append(opts, usecase.WithEvents(producer, cfg.Kafka.Topic))
	}
	return usecase.NewFetchUseCase(manager, log, opts...)
}

// ProvideBulkUseCase wires the bounded bulk fetcher.
func ProvideBulkUseCase(cfg *config.Config, log *applogger.Logger, fetch *usecase.FetchUseCase) *usecase.BulkUseCase {
	return usecase.NewBulkUseCase(fetch, log, cfg.Fetch.MaxConcurrent, cfg.Fetch.MaxBulkSize)
}

// ProvideHandler wires the HTTP handler.
func ProvideHandler(
	log *applogger.Logger,
	fetch *usecase.FetchUseCase,
	bulk *usecase.BulkUseCase,
	manager *provider.Manager,
	stats *appmetrics.Service,
) *api.Handler {
	return api.NewHandler(log, fetch, bulk, manager, stats)
}

// ProvideServer builds the HTTP server with the middleware stack.
func ProvideServer(
	cfg *config.Config,
	log *applogger.Logger,
	handler *api.Handler,
	store pkgcache.Service,
	stats *appmetrics.Service,
) *xhttp.Server {
	return xhttp.NewServer(log, handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRateLimit(middleware.RateLimitConfig{
			MaxRequests: cfg.Middleware.MaxRequests,
			Window:      time.Duration(cfg.Middleware.WindowSeconds) * time.Second,
		}),
		xhttp.WithResponseCache(store, cfg.Middleware.CacheTTL),
		xhttp.WithStats(stats, cfg.Middleware.SlowThreshold),
		xhttp.WithClassifier(api.ClassifyError),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	manager *provider.Manager,
	srv *xhttp.Server,
	producer *pkgkafka.Producer,
	store pkgcache.Service,
) *server.App {
	return server.New(cfg, log, manager, srv, producer, store)
}
