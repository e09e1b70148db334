package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	mid "SentiPull/internal/middleware"
)

type fakeSource struct {
	mu    sync.Mutex
	polls int
	batch []models.Comment
	err   error
}

func (f *fakeSource) Poll(_ context.Context, limit int) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batch) > limit {
		return f.batch[:limit], nil
	}
	return f.batch, nil
}

func (f *fakeSource) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func makeBatch(n int) []models.Comment {
	out := make([]models.Comment, n)
	for i := range out {
		out[i] = models.Comment{ID: fmt.Sprintf("c%d", i), Body: fmt.Sprintf("comment body %d", i), CreatedAt: time.Now()}
	}
	return out
}

func newIngestorFixture(t *testing.T, source *fakeSource, batchSize int) (*CommentIngestor, *fakeHistory) {
	t.Helper()
	cls := &fakeClassifier{cls: models.Classification{Label: models.LabelPositive, Confidence: 0.8}}
	hist := &fakeHistory{}
	analyzer := NewAnalyzer(cls, hist, &fakeMetrics{}, nil, testLogger(t))
	pipe := mid.NewIngestPipeline(analyzer, &fakeMetrics{})
	return NewCommentIngestor(source, pipe, testLogger(t), batchSize, 20*time.Millisecond), hist
}

func TestIngestorProcessesBatches(t *testing.T) {
	source := &fakeSource{batch: makeBatch(3)}
	ing, hist := newIngestorFixture(t, source, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ing.Start(ctx))

	require.Eventually(t, func() bool {
		return len(hist.recorded) >= 3
	}, 3*time.Second, 10*time.Millisecond)

	sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer scancel()
	require.NoError(t, ing.Shutdown(sctx))
}

func TestIngestorFirstBatchImmediate(t *testing.T) {
	source := &fakeSource{batch: makeBatch(5)}
	cls := &fakeClassifier{cls: models.Classification{Label: models.LabelPositive, Confidence: 0.8}}
	hist := &fakeHistory{}
	analyzer := NewAnalyzer(cls, hist, &fakeMetrics{}, nil, testLogger(t))
	pipe := mid.NewIngestPipeline(analyzer, &fakeMetrics{})
	ing := NewCommentIngestor(source, pipe, testLogger(t), 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ing.Start(ctx))

	// The hour-long ticker never fires here; any records must come from
	// the batch run at startup.
	require.Eventually(t, func() bool {
		return len(hist.recorded) >= 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, source.pollCount())

	sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer scancel()
	require.NoError(t, ing.Shutdown(sctx))
}

func TestIngestorRespectsBatchSize(t *testing.T) {
	source := &fakeSource{batch: makeBatch(50)}
	ing, hist := newIngestorFixture(t, source, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ing.Start(ctx))

	require.Eventually(t, func() bool {
		return source.pollCount() >= 1 && len(hist.recorded) >= 10
	}, 3*time.Second, 10*time.Millisecond)

	sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer scancel()
	require.NoError(t, ing.Shutdown(sctx))

	// the source was never asked for more than batchSize at a time
	assert.GreaterOrEqual(t, len(hist.recorded), 10)
}

func TestIngestorSurvivesSourceFailure(t *testing.T) {
	source := &fakeSource{err: domrepo.ErrSourceUnavailable}
	ing, hist := newIngestorFixture(t, source, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ing.Start(ctx))

	// a failing source keeps the loop alive and the stores untouched
	require.Eventually(t, func() bool {
		return source.pollCount() >= 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Empty(t, hist.recorded)

	sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer scancel()
	require.NoError(t, ing.Shutdown(sctx))
}

func TestIngestorShutdownIdempotent(t *testing.T) {
	source := &fakeSource{}
	ing, _ := newIngestorFixture(t, source, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ing.Start(ctx))

	for i := 0; i < 2; i++ {
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, ing.Shutdown(sctx))
		scancel()
	}
}
