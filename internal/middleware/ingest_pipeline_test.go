package middleware

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
)

type stubProc struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (s *stubProc) Analyze(_ context.Context, text, _ string) (models.AnalyzeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.AnalyzeResponse{}, s.err
	}
	s.texts = append(s.texts, text)
	return models.AnalyzeResponse{Sentiment: models.LabelPositive, Confidence: 0.9}, nil
}

func (s *stubProc) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *stubProc) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type countingMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errs: make(map[string]int)} }

func (m *countingMetrics) Observe(models.ClassificationResult, time.Duration) {}
func (m *countingMetrics) Snapshot() models.MetricsSnapshot                   { return models.MetricsSnapshot{} }
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errs[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[kind]
}

func TestProcessTruncates(t *testing.T) {
	proc := &stubProc{}
	p := NewIngestPipeline(proc, newCountingMetrics(), WithMaxTextLength(10))

	_, err := p.Process(context.Background(), strings.Repeat("x", 50))
	require.NoError(t, err)

	seen := proc.seen()
	require.Len(t, seen, 1)
	assert.Len(t, seen[0], 10)
}

func TestProcessTruncationKeepsRunesWhole(t *testing.T) {
	proc := &stubProc{}
	p := NewIngestPipeline(proc, newCountingMetrics(), WithMaxTextLength(10))

	// A naive byte cut at 10 would land inside the 2-byte "é".
	_, err := p.Process(context.Background(), strings.Repeat("a", 9)+"é to the moon")
	require.NoError(t, err)

	seen := proc.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, strings.Repeat("a", 9), seen[0])
	assert.True(t, utf8.ValidString(seen[0]))
}

func TestProcessBuffersWhenClassifierDown(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(domrepo.ErrClassifierUnavailable)
	m := newCountingMetrics()
	p := NewIngestPipeline(proc, m, WithBufferSize(10))

	_, err := p.Process(context.Background(), "hold me")
	require.Error(t, err)
	assert.ErrorIs(t, err, domrepo.ErrClassifierUnavailable)
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, 1, m.count("pipeline_classifier"))
}

func TestProcessDropsWhenBufferFull(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(domrepo.ErrClassifierUnavailable)
	m := newCountingMetrics()
	p := NewIngestPipeline(proc, m, WithBufferSize(1))

	for i := 0; i < 3; i++ {
		_, _ = p.Process(context.Background(), "overflow")
	}
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, 2, m.count("pipeline_buffer_full"))
}

func TestRetryDrainsAfterRecovery(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(domrepo.ErrClassifierUnavailable)
	p := NewIngestPipeline(proc, newCountingMetrics(), WithBufferSize(10))

	_, err := p.Process(context.Background(), "try again later")
	require.Error(t, err)
	require.Equal(t, 1, p.Depth())

	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(proc.seen()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"try again later"}, proc.seen())
	assert.Equal(t, 0, p.Depth())
}

func TestProcessPassesThroughOtherErrors(t *testing.T) {
	proc := &stubProc{}
	proc.setErr(context.DeadlineExceeded)
	p := NewIngestPipeline(proc, newCountingMetrics())

	_, err := p.Process(context.Background(), "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, p.Depth())
}
