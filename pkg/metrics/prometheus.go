package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SentiPull/internal/domain/models"
)

// Recorder implements domain repository.Metrics using Prometheus.
//
// Prometheus counters cannot be read back as a consistent set, so the
// recorder keeps its own mutex-guarded copy of the totals. Observe updates
// both under one lock, which makes each call a single logical unit and lets
// Snapshot return a view where current_score always matches the totals.
type Recorder struct {
	mu       sync.Mutex
	requests int64
	positive int64
	negative int64
	score    float64

	requestsTotal prometheus.Counter
	positiveTotal prometheus.Counter
	negativeTotal prometheus.Counter
	scoreGauge    prometheus.Gauge
	latency       prometheus.Histogram
	errorsTotal   *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder registered on reg. Pass nil to
// use the default registerer; tests pass a fresh registry so instances stay
// isolated.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		requestsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sentiment_requests_total",
			Help: "Total sentiment analysis requests",
		}),
		positiveTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sentiment_positive_total",
			Help: "Total positive sentiments",
		}),
		negativeTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "sentiment_negative_total",
			Help: "Total negative sentiments",
		}),
		scoreGauge: f.NewGauge(prometheus.GaugeOpts{
			Name: "sentiment_score",
			Help: "Current sentiment score (-1 to 1)",
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentiment_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentiment_errors_total",
			Help: "Total number of errors encountered",
		}, []string{"type"}),
	}
}

// Observe records one classification: increments the totals, recomputes the
// score gauge from the cumulative counts, and records the latency bucket.
// NEUTRAL labels increment neither positive nor negative.
func (r *Recorder) Observe(res models.ClassificationResult, latency time.Duration) {
	r.mu.Lock()
	r.requests++
	r.requestsTotal.Inc()
	switch res.Label {
	case models.LabelPositive:
		r.positive++
		r.positiveTotal.Inc()
	case models.LabelNegative:
		r.negative++
		r.negativeTotal.Inc()
	}
	r.score = float64(r.positive-r.negative) / float64(r.requests)
	r.scoreGauge.Set(r.score)
	r.latency.Observe(latency.Seconds())
	r.mu.Unlock()
}

// Snapshot returns a consistent point-in-time copy of the counters.
func (r *Recorder) Snapshot() models.MetricsSnapshot {
	r.mu.Lock()
	s := models.MetricsSnapshot{
		RequestsTotal: r.requests,
		PositiveTotal: r.positive,
		NegativeTotal: r.negative,
		CurrentScore:  r.score,
	}
	r.mu.Unlock()
	return s
}

// RecordError records an error occurrence by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
