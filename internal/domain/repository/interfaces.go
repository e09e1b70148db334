package repository

import (
	"context"
	"errors"
	"time"

	"SentiPull/internal/domain/models"
)

// ErrClassifierUnavailable is returned when the underlying model cannot be
// invoked (not yet loaded, or the model service is unreachable).
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// ErrSourceUnavailable is returned when the upstream comment source fails on
// transport or auth. The ingestion driver logs it and retries on the next tick.
var ErrSourceUnavailable = errors.New("source unavailable")

// Classifier scores a single text. Implementations may be slow; callers must
// never invoke Classify while holding a store lock.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Classification, error)
	// Ready reports whether the underlying model can currently be invoked.
	Ready(ctx context.Context) bool
}

// CommentSource yields raw text items from the upstream stream. Poll may
// return fewer than limit, including zero, on a quiet period.
type CommentSource interface {
	Poll(ctx context.Context, limit int) ([]models.Comment, error)
}

// History is the bounded store of recent classification results. All methods
// are safe for concurrent use; Snapshot returns a point-in-time copy with no
// torn reads.
type History interface {
	Record(res models.ClassificationResult)
	Snapshot() []models.ClassificationResult
	Size() int
}

// Metrics is the cumulative process counter store. Observe applies all its
// side effects as one logical unit per call.
type Metrics interface {
	Observe(res models.ClassificationResult, latency time.Duration)
	Snapshot() models.MetricsSnapshot
	RecordError(kind string)
}

// EventPublisher pushes classification events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.ClassificationEvent) error
	Close() error
}
