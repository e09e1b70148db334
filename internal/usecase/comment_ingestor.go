package usecase

import (
	"context"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	mid "SentiPull/internal/middleware"
	svcmetrics "SentiPull/internal/service/metrics"
	xlogger "SentiPull/pkg/logger"
)

// CommentIngestor pulls comment batches from the upstream source on an
// interval and feeds them through the ingest pipeline into the analyze path.
// At most one iteration is in flight at a time; if a batch takes longer than
// the poll interval the next tick waits behind it.
type CommentIngestor struct {
	source    domrepo.CommentSource
	pipe      *mid.IngestPipeline
	logger    *xlogger.Logger
	batchSize int
	interval  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCommentIngestor creates the ingestion driver.
func NewCommentIngestor(
	source domrepo.CommentSource,
	pipe *mid.IngestPipeline,
	logger *xlogger.Logger,
	batchSize int,
	interval time.Duration,
) *CommentIngestor {
	if batchSize <= 0 {
		batchSize = 10
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &CommentIngestor{
		source:    source,
		pipe:      pipe,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the poll loop. It returns immediately; the loop runs until
// Shutdown is called or ctx is cancelled.
func (i *CommentIngestor) Start(ctx context.Context) error {
	svcmetrics.Register()
	i.pipe.Start(ctx)

	i.wg.Add(1)
	go i.run(ctx)

	i.logger.Info("ingestion started",
		xlogger.Int("batch_size", i.batchSize),
		xlogger.Duration("poll_interval", i.interval),
	)
	return nil
}

func (i *CommentIngestor) run(ctx context.Context) {
	defer i.wg.Done()

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	// First batch fires right away; the ticker paces the rest.
	iteration := 1
	i.runBatch(ctx, iteration)

	for {
		select {
		case <-ctx.Done():
			return
		case <-i.stopCh:
			return
		case <-ticker.C:
			iteration++
			i.runBatch(ctx, iteration)
		}
	}
}

// runBatch fetches one batch and classifies each item. A single item's
// failure is logged and skipped; a source failure skips the whole tick.
func (i *CommentIngestor) runBatch(ctx context.Context, iteration int) {
	start := time.Now()
	comments, err := i.source.Poll(ctx, i.batchSize)
	svcmetrics.IngestLatency.WithLabelValues("poll").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.IngestErrors.WithLabelValues("poll").Inc()
		svcmetrics.IngestBatches.WithLabelValues("error").Inc()
		i.logger.Error("poll failed", xlogger.Int("iteration", iteration), xlogger.Error(err))
		return
	}
	if len(comments) == 0 {
		svcmetrics.IngestBatches.WithLabelValues("empty").Inc()
		i.logger.Debug("empty batch", xlogger.Int("iteration", iteration))
		return
	}

	var positive, negative, failed int
	var confSum float64
	for _, cm := range comments {
		select {
		case <-ctx.Done():
			return
		case <-i.stopCh:
			return
		default:
		}

		cstart := time.Now()
		resp, err := i.pipe.Process(ctx, cm.Body)
		svcmetrics.IngestLatency.WithLabelValues("classify").Observe(time.Since(cstart).Seconds())
		if err != nil {
			failed++
			svcmetrics.IngestErrors.WithLabelValues("classify").Inc()
			i.logger.Warn("comment skipped", xlogger.String("id", cm.ID), xlogger.Error(err))
			continue
		}
		switch resp.Sentiment {
		case models.LabelPositive:
			positive++
		case models.LabelNegative:
			negative++
		}
		confSum += resp.Confidence
	}

	ok := len(comments) - failed
	avgConf := 0.0
	if ok > 0 {
		avgConf = confSum / float64(ok)
	}
	svcmetrics.IngestBatches.WithLabelValues("ok").Inc()
	i.logger.Info("batch processed",
		xlogger.Int("iteration", iteration),
		xlogger.Int("fetched", len(comments)),
		xlogger.Int("positive", positive),
		xlogger.Int("negative", negative),
		xlogger.Int("failed", failed),
		xlogger.Float64("avg_confidence", avgConf),
	)
}

// Shutdown stops the poll loop and the pipeline. An in-flight batch finishes
// the current item and exits; neither store is left mid-mutation.
func (i *CommentIngestor) Shutdown(ctx context.Context) error {
	i.stopOnce.Do(func() { close(i.stopCh) })

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	i.pipe.Stop()
	i.logger.Info("ingestion stopped")
	return nil
}
