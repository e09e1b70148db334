package di

import (
	"fmt"

	"SentiPull/internal/domain/repository"
	"SentiPull/internal/handler/api"
	"SentiPull/internal/handler/ws"
	mid "SentiPull/internal/middleware"
	internalrepo "SentiPull/internal/repository"
	"SentiPull/internal/service/cache"
	"SentiPull/internal/service/classifier"
	"SentiPull/internal/service/reddit"
	"SentiPull/internal/usecase"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	pkgkafka "SentiPull/pkg/kafka"
	"SentiPull/pkg/logger"
	"SentiPull/pkg/metrics"
	"SentiPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registerer.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideHistory creates the bounded sentiment history window.
func ProvideHistory(cfg *config.Config) repository.History {
	return internalrepo.NewSentimentHistory(cfg.History.WindowSize)
}

// ProvideAggregator creates the market signal aggregator.
func ProvideAggregator(cfg *config.Config) *usecase.SignalAggregator {
	return usecase.NewSignalAggregator(
		usecase.WithThresholds(cfg.Signal.BullishThreshold, cfg.Signal.BearishThreshold),
	)
}

// ProvideClassifier creates the sentiment model HTTP client.
func ProvideClassifier(cfg *config.Config) repository.Classifier {
	return classifier.New(cfg.Model.URL, cfg.Model.Timeout, cfg.Model.RetryMax)
}

// ProvideEventPublisher creates the Kafka classification-event publisher.
// Returns nil when event publishing is disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Events.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Events.WriteTimeout, cfg.Events.WriteTimeout),
		pkgkafka.WithAsync(cfg.Events.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic), nil
}

// ProvideAnalyzer creates the analyze use case.
func ProvideAnalyzer(
	cls repository.Classifier,
	history repository.History,
	m repository.Metrics,
	events repository.EventPublisher,
	l *logger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(cls, history, m, events, l)
}

// ProvidePipeline builds the ingest middleware between the comment source
// and the analyzer.
func ProvidePipeline(analyzer *usecase.Analyzer, m repository.Metrics, cfg *config.Config) *mid.IngestPipeline {
	return mid.NewIngestPipeline(analyzer, m,
		mid.WithMaxTextLength(cfg.Source.MaxTextLength),
		mid.WithBufferSize(cfg.Source.BufferSize),
	)
}

// ProvideIngestor creates the Reddit polling driver. Returns nil when the
// configured source is not reddit.
func ProvideIngestor(cfg *config.Config, pipe *mid.IngestPipeline, l *logger.Logger) *usecase.CommentIngestor {
	if cfg.Source.Type != config.SourceReddit {
		return nil
	}
	source := reddit.New(reddit.Config{
		BaseURL:      cfg.Reddit.BaseURL,
		AuthURL:      cfg.Reddit.AuthURL,
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		Username:     cfg.Reddit.Username,
		Password:     cfg.Reddit.Password,
		UserAgent:    cfg.Reddit.UserAgent,
		Subreddit:    cfg.Source.Subreddit,
	})
	return usecase.NewCommentIngestor(source, pipe, l, cfg.Source.BatchSize, cfg.Source.PollInterval)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
// Returns nil when the configured source is not kafka.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Source.Type != config.SourceKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideKafkaCommentsHandler registers the handler for the comments topic.
// Returns nil when the configured source is not kafka.
func ProvideKafkaCommentsHandler(cfg *config.Config, pipe *mid.IngestPipeline, l *logger.Logger) *usecase.KafkaCommentsHandler {
	if cfg.Source.Type != config.SourceKafka {
		return nil
	}
	return usecase.NewKafkaCommentsHandler(cfg.Kafka.Topic, pipe, l)
}

// ProvideSignalCache selects the response cache backend for /market-signal.
// Returns nil when caching is disabled.
func ProvideSignalCache(cfg *config.Config) cache.BytesCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideHTTPHandler creates the sentiment API handler.
func ProvideHTTPHandler(
	l *logger.Logger,
	analyzer *usecase.Analyzer,
	agg *usecase.SignalAggregator,
	history repository.History,
	cls repository.Classifier,
	signalCache cache.BytesCache,
	cfg *config.Config,
) xhttp.Handler {
	opts := []api.HandlerOption{}
	if signalCache != nil {
		opts = append(opts, api.WithSignalCache(signalCache, cfg.Signal.CacheTTL))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, api.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	return api.NewSentimentEchoHandler(l, analyzer, agg, history, cls, opts...)
}

// ProvideBroadcaster creates the websocket signal feed.
// Returns nil when the feed is disabled.
func ProvideBroadcaster(cfg *config.Config, history repository.History, agg *usecase.SignalAggregator, l *logger.Logger) *ws.SignalBroadcaster {
	if !cfg.WS.Enabled {
		return nil
	}
	return ws.NewSignalBroadcaster(history, agg, l, cfg.WS.PushInterval)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpHandler xhttp.Handler,
	ingestor *usecase.CommentIngestor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCommentsHandler,
	broadcaster *ws.SignalBroadcaster,
	events repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, httpHandler, ingestor, consumer, kh, broadcaster, events)
}
