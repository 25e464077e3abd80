package repository

import (
	"context"
	"fmt"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// KafkaDeltaPublisher publishes price-delta events to a topic, keyed by
// symbol so per-symbol ordering survives partitioning.
type KafkaDeltaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaDeltaPublisher(producer *pkgkafka.Producer, topic string) *KafkaDeltaPublisher {
	return &KafkaDeltaPublisher{producer: producer, topic: topic}
}

// Store publishes one delta event.
func (p *KafkaDeltaPublisher) Store(ctx context.Context, ev *models.PriceDeltaEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.Ticker), ev); err != nil {
		return fmt.Errorf("publish delta: %w", err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaDeltaPublisher) Close() error {
	return p.producer.Close()
}

var _ drepo.DeltaSink = (*KafkaDeltaPublisher)(nil)
