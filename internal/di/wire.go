//go:build wireinject
// +build wireinject

package di

import (
	"FinFetch/pkg/config"
	"FinFetch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideStats,
		ProvideRecorder,

		// Infrastructure clients
		ProvideCacheService,
		ProvideKafkaProducer,
		ProvideHTTPClient,

		// Provider fleet
		ProvideRegistry,
		ProvideManager,

		// Use cases
		ProvideFetchUseCase,
		ProvideBulkUseCase,

		// HTTP surface
		ProvideHandler,
		ProvideServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
