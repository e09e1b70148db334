package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
)

func observe(r *Recorder, label models.Label) {
	r.Observe(models.ClassificationResult{Label: label, Confidence: 0.9, ObservedAt: time.Now()}, 5*time.Millisecond)
}

func TestObserveCounters(t *testing.T) {
	r := New(prometheus.NewRegistry())

	observe(r, models.LabelPositive)
	observe(r, models.LabelPositive)
	observe(r, models.LabelNegative)
	observe(r, models.LabelNeutral)

	s := r.Snapshot()
	assert.Equal(t, int64(4), s.RequestsTotal)
	assert.Equal(t, int64(2), s.PositiveTotal)
	assert.Equal(t, int64(1), s.NegativeTotal)
	// score = (2 - 1) / 4
	assert.InDelta(t, 0.25, s.CurrentScore, 1e-9)
}

func TestObserveExportsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	observe(r, models.LabelPositive)
	observe(r, models.LabelNegative)
	observe(r, models.LabelNegative)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.requestsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.positiveTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.negativeTotal))
	assert.InDelta(t, -1.0/3.0, testutil.ToFloat64(r.scoreGauge), 1e-9)
}

func TestSnapshotBeforeFirstObserve(t *testing.T) {
	r := New(prometheus.NewRegistry())
	s := r.Snapshot()

	assert.Zero(t, s.RequestsTotal)
	assert.Zero(t, s.CurrentScore)
}

func TestCountersMonotonic(t *testing.T) {
	r := New(prometheus.NewRegistry())

	var prev int64
	for i := 0; i < 50; i++ {
		observe(r, models.LabelNegative)
		s := r.Snapshot()
		require.Greater(t, s.RequestsTotal, prev)
		prev = s.RequestsTotal
	}
	assert.InDelta(t, -1.0, r.Snapshot().CurrentScore, 1e-9)
}

func TestRecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordError("classify")
	r.RecordError("classify")
	r.RecordError("source")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("classify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("source")))
}

func TestObserveConcurrent(t *testing.T) {
	r := New(prometheus.NewRegistry())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				observe(r, models.LabelPositive)
			}
		}()
	}
	wg.Wait()

	s := r.Snapshot()
	assert.Equal(t, int64(4000), s.RequestsTotal)
	assert.Equal(t, int64(4000), s.PositiveTotal)
	assert.InDelta(t, 1.0, s.CurrentScore, 1e-9)
}
