//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Upstream + caches
		ProvideUpstream,
		ProvideRecordCache,
		ProvideSnapshotCache,
		ProvideUniverse,

		// Live fan-out + history backends
		ProvideHub,
		ProvideDeltaSink,
		ProvideRecordStore,

		// Use cases
		ProvideDeltaProcessor,
		ProvideUpdatePipeline,
		ProvideAggregator,
		ProvideHotScorer,

		// HTTP surface
		ProvideStocksHandler,
		ProvideLiveHandler,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
