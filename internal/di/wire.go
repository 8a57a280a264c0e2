//go:build wireinject
// +build wireinject

package di

import (
	"TradeYodha/internal/domain/repository"
	"TradeYodha/internal/usecase"
	"TradeYodha/pkg/config"
	"TradeYodha/pkg/metrics"
	"TradeYodha/pkg/server"

	"github.com/google/wire"
)

var engineSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

	// Infrastructure
	ProvidePolygonClient,
	ProvideCacheStore,
	ProvideMemo,
	ProvidePrintSource,
	ProvideWatchlistStore,
	ProvideSignalPublisher,

	// Domain services
	ProvideFlowAggregator,
	ProvideDarkPoolClassifier,
	ProvideGapRanker,
	ProvideFormatter,
	ProvideInsightGenerator,

	// Use cases
	ProvideSnapshotFetcher,
	ProvideSignalEngine,
	ProvideScopeResolver,
	ProvideInsightService,
)

// InitializeApp wires the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		engineSet,
		ProvideSignalsHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeSnapshotRunner wires the one-shot snapshot command.
func InitializeSnapshotRunner(cfg *config.Config) (*usecase.SnapshotRunner, func(), error) {
	wire.Build(
		engineSet,
		ProvideSnapshotRunner,
	)
	return nil, nil, nil
}
