package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type store interface {
	Fetch(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, id string) error
}

type producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher polls the outbox table and publishes unpublished events to Kafka.
// A publish that succeeds but fails to be marked is re-sent on the next tick;
// downstream consumers get at-least-once delivery.
type Publisher struct {
	store     store
	producer  producer
	log       *zap.Logger
	batchSize int
	pollDelay time.Duration
}

func NewPublisher(s store, p producer, log *zap.Logger) *Publisher {
	return &Publisher{
		store:     s,
		producer:  p,
		log:       log,
		batchSize: 50,
		pollDelay: 2 * time.Second,
	}
}

// Start begins the polling loop. It blocks until the context is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.pollDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	rows, err := p.store.Fetch(ctx, p.batchSize)
	if err != nil {
		p.log.Error("outbox query failed", zap.Error(err))
		return
	}

	for _, row := range rows {
		if err := p.producer.Publish(ctx, row.Topic, []byte(row.Key), row.Payload); err != nil {
			p.log.Error("kafka publish failed", zap.String("outbox_id", row.ID), zap.Error(err))
			continue
		}

		if err := p.store.MarkPublished(ctx, row.ID); err != nil {
			p.log.Error("outbox mark published failed", zap.String("outbox_id", row.ID), zap.Error(err))
		}
	}
}
