package repository

import (
	"context"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	pkgkafka "SentiPull/pkg/kafka"
)

// KafkaEventPublisher publishes classification events to a Kafka topic for
// downstream consumers. Messages are keyed by origin so per-source ordering
// is preserved within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.ClassificationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Source), ev)
}

// PublishMessage sends an arbitrary payload to topic. It satisfies the log
// collector's publisher interface so aggregated error logs ride the same
// producer as classification events.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
