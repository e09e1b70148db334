package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	"SentiPull/pkg/util"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Analyze(ctx context.Context, text, source string) (models.AnalyzeResponse, error)
}

// IngestPipeline sits between the comment source and the analyze path. It
// validates and truncates raw text, and buffers items whose classification
// failed because the model was momentarily unavailable; buffered items are
// retried in the background with backoff and dropped when the buffer fills.
// A failed classification never touches the history or the counters.
type IngestPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxLen  int
	bufSize int
	bufCh   chan string
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*IngestPipeline)

// WithMaxTextLength sets the truncation bound applied before classification.
func WithMaxTextLength(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxLen = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:    proc,
		metrics: metrics,
		maxLen:  512,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan string, p.bufSize)
	return p
}

// Start launches background retry of buffered texts.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case text := <-p.bufCh:
				if text == "" {
					continue
				}
				if _, err := p.proc.Analyze(ctx, text, "ingest"); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- text:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background retry loop.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, truncates, and forwards text to the analyze path,
// buffering it for retry when the classifier is unavailable.
func (p *IngestPipeline) Process(ctx context.Context, text string) (models.AnalyzeResponse, error) {
	text = util.TruncateBytes(text, p.maxLen)

	resp, err := p.proc.Analyze(ctx, text, "ingest")
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, domrepo.ErrClassifierUnavailable) {
		p.metrics.RecordError("pipeline_classifier")
		select {
		case p.bufCh <- text:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return models.AnalyzeResponse{}, fmt.Errorf("pipeline buffered: %w", err)
	}
	return models.AnalyzeResponse{}, err
}

// Depth returns the current retry buffer occupancy.
func (p *IngestPipeline) Depth() int { return len(p.bufCh) }
