package usecase

import (
	"context"
	"encoding/json"
	"time"

	mid "SentiPull/internal/middleware"
	svcmetrics "SentiPull/internal/service/metrics"
	pkgkafka "SentiPull/pkg/kafka"
	xlogger "SentiPull/pkg/logger"
)

// KafkaCommentsHandler consumes raw comment messages from a Kafka topic and
// feeds them through the ingest pipeline. It is the streaming alternative to
// the interval-paced Reddit poller.
type KafkaCommentsHandler struct {
	topic  string
	pipe   *mid.IngestPipeline
	logger *xlogger.Logger
}

func NewKafkaCommentsHandler(topic string, pipe *mid.IngestPipeline, logger *xlogger.Logger) *KafkaCommentsHandler {
	svcmetrics.Register()
	return &KafkaCommentsHandler{topic: topic, pipe: pipe, logger: logger}
}

func (h *KafkaCommentsHandler) Topic() string { return h.topic }

// Start launches the pipeline's background retry loop.
func (h *KafkaCommentsHandler) Start(ctx context.Context) { h.pipe.Start(ctx) }

// Stop halts the pipeline.
func (h *KafkaCommentsHandler) Stop() { h.pipe.Stop() }

// incoming message schema: {id, author, body, created_utc}
func (h *KafkaCommentsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID         string  `json:"id"`
		Author     string  `json:"author"`
		Body       string  `json:"body"`
		CreatedUTC float64 `json:"created_utc"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		svcmetrics.IngestErrors.WithLabelValues("unmarshal").Inc()
		return err
	}
	if m.Body == "" {
		// tombstones and deleted comments carry no text
		return nil
	}

	start := time.Now()
	_, err := h.pipe.Process(ctx, m.Body)
	svcmetrics.IngestLatency.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.IngestErrors.WithLabelValues("classify").Inc()
		h.logger.Warn("comment skipped", xlogger.String("id", m.ID), xlogger.Error(err))
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCommentsHandler)(nil)
