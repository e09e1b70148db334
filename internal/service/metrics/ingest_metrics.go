package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	IngestBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentipull",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Ingestion batches by result",
		},
		[]string{"result"}, // ok, empty, error
	)

	IngestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentipull",
			Subsystem: "ingest",
			Name:      "latency_seconds",
			Help:      "Latency of ingestion stages",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"}, // poll, classify
	)

	IngestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentipull",
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Errors by ingestion stage",
		},
		[]string{"stage"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(IngestBatches, IngestLatency, IngestErrors)
	})
}
