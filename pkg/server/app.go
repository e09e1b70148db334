package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/handler/ws"
	"SentiPull/internal/usecase"
	"SentiPull/pkg/config"
	xhttp "SentiPull/pkg/http"
	pkgkafka "SentiPull/pkg/kafka"
	applogger "SentiPull/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP surface, the
// ingestion driver (Reddit poller or Kafka consumer, depending on config),
// and the optional websocket signal feed.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	ingestor    *usecase.CommentIngestor     // reddit source; nil otherwise
	consumer    *pkgkafka.Consumer           // kafka source; nil otherwise
	kh          *usecase.KafkaCommentsHandler
	broadcaster *ws.SignalBroadcaster // nil when ws disabled
	events      domrepo.EventPublisher
}

// New creates a new App instance with all dependencies. ingestor, consumer,
// broadcaster, and events may be nil depending on configuration.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpHandler xhttp.Handler,
	ingestor *usecase.CommentIngestor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCommentsHandler,
	broadcaster *ws.SignalBroadcaster,
	events domrepo.EventPublisher,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		httpHandler: httpHandler,
		ingestor:    ingestor,
		consumer:    consumer,
		kh:          kh,
		broadcaster: broadcaster,
		events:      events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, nil),
	)

	// Aggregate repeated error logs and flush them through the event producer
	if a.cfg.Events.LogTopic != "" && a.events != nil {
		if pub, ok := a.events.(applogger.Publisher); ok {
			a.logger.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   30 * time.Second,
				CountThreshold: 100,
				Topic:          a.cfg.Events.LogTopic,
				Publisher:      pub,
			})
		}
	}

	if a.broadcaster != nil {
		a.broadcaster.RegisterRoutes(a.httpServer.Echo())
		a.broadcaster.Start(ctx)
		a.logger.Info("signal broadcaster started")
	}

	// Start the configured ingestion backend
	if a.ingestor != nil {
		if err := a.ingestor.Start(ctx); err != nil {
			a.logger.Error("ingestor start error", applogger.Error(err))
			return err
		}
	}
	if a.consumer != nil && a.kh != nil {
		a.kh.Start(ctx)
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("serving", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.ingestor != nil {
		if err := a.ingestor.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("ingestor stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
		if a.kh != nil {
			a.kh.Stop()
		}
	}
	if a.broadcaster != nil {
		a.broadcaster.Stop()
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.logger.RemoveCollector()
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
