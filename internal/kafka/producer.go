package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer is the sink side of the transactional outbox. Rows are keyed by
// order or message id, so the hash balancer keeps every event for one entity
// on one partition and consumers see its transitions in order.
type Producer struct {
	w *kafka.Writer
}

// NewProducer configures a writer for outbox draining: full-ISR acks, because
// a row is marked published the moment WriteMessages returns, and a near-zero
// batch timeout, because the publisher hands over rows one at a time.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes one event to topic. The topic travels on the message rather
// than the writer so a single producer serves both order and message events.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// Close flushes any buffered events and releases broker connections.
func (p *Producer) Close() error { return p.w.Close() }
