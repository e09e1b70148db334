package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
)

func result(label models.Label, conf float64) models.ClassificationResult {
	return models.ClassificationResult{Label: label, Confidence: conf, ObservedAt: time.Now()}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewSentimentHistory(10)
	assert.Equal(t, 0, h.Size())
	assert.Equal(t, 10, h.Capacity())
	assert.Empty(t, h.Snapshot())
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewSentimentHistory(0)
	assert.Equal(t, DefaultWindowSize, h.Capacity())
	h = NewSentimentHistory(-5)
	assert.Equal(t, DefaultWindowSize, h.Capacity())
}

func TestHistoryRecordBelowCapacity(t *testing.T) {
	h := NewSentimentHistory(10)
	for i := 0; i < 7; i++ {
		h.Record(result(models.LabelPositive, float64(i)/10))
	}
	require.Equal(t, 7, h.Size())

	snap := h.Snapshot()
	require.Len(t, snap, 7)
	for i, r := range snap {
		assert.InDelta(t, float64(i)/10, r.Confidence, 1e-9, "entry %d out of arrival order", i)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewSentimentHistory(10)
	for i := 0; i < 15; i++ {
		h.Record(result(models.LabelNegative, float64(i)))
	}
	require.Equal(t, 10, h.Size())

	// Entries 0-4 were evicted; 5-14 remain, oldest first.
	snap := h.Snapshot()
	require.Len(t, snap, 10)
	for i, r := range snap {
		assert.Equal(t, float64(i+5), r.Confidence)
	}
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := NewSentimentHistory(5)
	h.Record(result(models.LabelPositive, 0.9))

	snap := h.Snapshot()
	snap[0].Label = models.LabelNegative

	again := h.Snapshot()
	assert.Equal(t, models.LabelPositive, again[0].Label)
}

func TestHistoryConcurrent(t *testing.T) {
	h := NewSentimentHistory(100)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.Record(result(models.LabelNeutral, 0.5))
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				snap := h.Snapshot()
				if len(snap) > 100 {
					panic(fmt.Sprintf("snapshot over capacity: %d", len(snap)))
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, h.Size())
}

// A single writer tags each record with its sequence number so concurrent
// snapshots can be checked for ordering: every snapshot must be a contiguous
// strictly-increasing window, with no duplicates, gaps, or reordering.
func TestHistoryConcurrentSnapshotOrdering(t *testing.T) {
	h := NewSentimentHistory(100)

	const total = 10000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			h.Record(result(models.LabelNeutral, float64(i)))
		}
	}()

	var wg sync.WaitGroup
	violations := make(chan string, 4)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				snap := h.Snapshot()
				if len(snap) > 100 {
					violations <- fmt.Sprintf("snapshot over capacity: %d", len(snap))
					return
				}
				for j := 1; j < len(snap); j++ {
					if snap[j].Confidence != snap[j-1].Confidence+1 {
						violations <- fmt.Sprintf("gap or reorder at entry %d: %v then %v",
							j, snap[j-1].Confidence, snap[j].Confidence)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	<-done

	select {
	case v := <-violations:
		t.Fatal(v)
	default:
	}

	// The final window is the last 100 records, still in arrival order.
	snap := h.Snapshot()
	require.Len(t, snap, 100)
	assert.Equal(t, float64(total-100), snap[0].Confidence)
	assert.Equal(t, float64(total-1), snap[len(snap)-1].Confidence)
}
