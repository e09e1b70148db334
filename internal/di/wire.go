//go:build wireinject
// +build wireinject

package di

import (
	"SentiPull/pkg/config"
	"SentiPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Core state
		ProvideHistory,
		ProvideAggregator,

		// External clients
		ProvideClassifier,
		ProvideEventPublisher,
		ProvideSignalCache,

		// Use cases and pipeline
		ProvideAnalyzer,
		ProvidePipeline,
		ProvideIngestor,

		// Kafka source
		ProvideKafkaConsumer,
		ProvideKafkaCommentsHandler,

		// Surfaces
		ProvideHTTPHandler,
		ProvideBroadcaster,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
