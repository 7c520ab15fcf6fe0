package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FinFetch/internal/provider"
	pkgcache "FinFetch/pkg/cache"
	"FinFetch/pkg/config"
	xhttp "FinFetch/pkg/http"
	pkgkafka "FinFetch/pkg/kafka"
	applogger "FinFetch/pkg/logger"
)

// App encapsulates the application lifecycle: provider fleet startup,
// HTTP serving, and graceful teardown.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	manager  *provider.Manager
	server   *xhttp.Server
	producer *pkgkafka.Producer
	store    pkgcache.Service

	collectorAttached bool
}

// New creates the App with all dependencies injected.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	manager *provider.Manager,
	server *xhttp.Server,
	producer *pkgkafka.Producer,
	store pkgcache.Service,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		manager:  manager,
		server:   server,
		producer: producer,
		store:    store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.producer != nil && a.cfg.Kafka.LogTopic != "" {
		a.log.AddCollector(&applogger.CollectorConfig{
			Topic:     a.cfg.Kafka.LogTopic,
			Publisher: a.producer,
		})
		a.collectorAttached = true
	}

	count := a.manager.InitializeAll(ctx)
	status := a.manager.Status()
	a.log.Info("provider fleet ready",
		applogger.Int("configured", status.Configured),
		applogger.Int("live", count))
	if count == 0 {
		a.log.Warn("no providers initialized, requests will fail")
	}

	if err := a.server.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.manager.CloseAll()

	if a.collectorAttached {
		a.log.RemoveCollector()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("producer close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
