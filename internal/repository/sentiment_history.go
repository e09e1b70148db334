package repository

import (
	"sync"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
)

// DefaultWindowSize is the history capacity used when configuration does not
// override it.
const DefaultWindowSize = 100

// SentimentHistory is a fixed-capacity FIFO ring buffer of classification
// results. It is the single source of truth for signal aggregation. Writers
// and readers serialize on one mutex; the lock is held only for the O(1)
// append/evict or the O(n) copy, never across a classifier call.
type SentimentHistory struct {
	mu   sync.Mutex
	buf  []models.ClassificationResult
	head int // index of the oldest entry
	size int
}

// NewSentimentHistory creates a history store with the given capacity.
// Capacity is fixed at construction; non-positive values fall back to
// DefaultWindowSize.
func NewSentimentHistory(capacity int) *SentimentHistory {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &SentimentHistory{buf: make([]models.ClassificationResult, capacity)}
}

// Record appends res at the tail, evicting the oldest entry when full.
// It never fails and never grows beyond the configured capacity.
func (h *SentimentHistory) Record(res models.ClassificationResult) {
	h.mu.Lock()
	if h.size < len(h.buf) {
		h.buf[(h.head+h.size)%len(h.buf)] = res
		h.size++
	} else {
		h.buf[h.head] = res
		h.head = (h.head + 1) % len(h.buf)
	}
	h.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the history in arrival order.
// The copy is taken under the lock, so a concurrent Record never yields a
// view with duplicated or missing entries.
func (h *SentimentHistory) Snapshot() []models.ClassificationResult {
	h.mu.Lock()
	out := make([]models.ClassificationResult, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	h.mu.Unlock()
	return out
}

// Size returns the current occupancy, always <= capacity.
func (h *SentimentHistory) Size() int {
	h.mu.Lock()
	n := h.size
	h.mu.Unlock()
	return n
}

// Capacity returns the fixed window size.
func (h *SentimentHistory) Capacity() int { return len(h.buf) }

var _ domrepo.History = (*SentimentHistory)(nil)
