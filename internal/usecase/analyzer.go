package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

// ErrInvalidInput is returned for empty or malformed analyze input. The text
// never reaches the classifier or either store.
var ErrInvalidInput = errors.New("invalid input")

// Analyzer runs the classify -> record -> observe path shared by the API
// handler and the ingestion driver. The classifier call happens before any
// store is touched, so a failed classification can never corrupt the history
// bound or the counter monotonicity.
type Analyzer struct {
	classifier domrepo.Classifier
	history    domrepo.History
	metrics    domrepo.Metrics
	events     domrepo.EventPublisher // optional
	logger     *xlogger.Logger
}

// NewAnalyzer creates an Analyzer. events may be nil.
func NewAnalyzer(
	classifier domrepo.Classifier,
	history domrepo.History,
	metrics domrepo.Metrics,
	events domrepo.EventPublisher,
	logger *xlogger.Logger,
) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		history:    history,
		metrics:    metrics,
		events:     events,
		logger:     logger,
	}
}

// Analyze scores one text and feeds the rolling history and the cumulative
// counters. Both stores are updated before the call returns success. source
// tags where the text came from ("api" or "ingest").
func (a *Analyzer) Analyze(ctx context.Context, text, source string) (models.AnalyzeResponse, error) {
	if strings.TrimSpace(text) == "" {
		return models.AnalyzeResponse{}, ErrInvalidInput
	}

	start := time.Now()
	cls, err := a.classifier.Classify(ctx, text)
	if err != nil {
		a.metrics.RecordError("classify")
		return models.AnalyzeResponse{}, fmt.Errorf("classify: %w", err)
	}

	res := models.ClassificationResult{
		Label:      cls.Label,
		Confidence: cls.Confidence,
		ObservedAt: time.Now(),
	}
	a.history.Record(res)
	a.metrics.Observe(res, time.Since(start))

	if a.events != nil {
		ev := models.ClassificationEvent{
			Source:     source,
			Label:      res.Label,
			Confidence: res.Confidence,
			ObservedAt: res.ObservedAt,
		}
		// best effort; never on the caller's latency path
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.events.Publish(pubCtx, ev); err != nil {
				a.metrics.RecordError("publish")
				a.logger.Warn("event publish failed", xlogger.Error(err))
			}
		}()
	}

	a.logger.Info("analyzed text",
		xlogger.String("text", truncate(text, 30)),
		xlogger.String("result", string(res.Label)),
		xlogger.String("source", source),
	)

	return models.AnalyzeResponse{Sentiment: res.Label, Confidence: res.Confidence}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return util.TruncateBytes(s, n) + "..."
}
