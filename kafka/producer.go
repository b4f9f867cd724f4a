// Package kafka adapts the log port (spec.md §1, §9) onto
// github.com/Shopify/sarama — the broker client the teacher depends on.
// Topics, partitions, and consumer groups are assumed infrastructure per
// spec.md §1; this package only has to honor the one contract the core
// relies on: messages published with the same key land on the same
// partition, so a single saga's events are observed in publish order.
package kafka

import (
	"context"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/sergen116/food-ordering-system/pkg/apperr"
)

// Producer publishes a value to a topic, partitioned by key. The teacher's
// producer (kafka/producer.go) ignored the key entirely, relying on
// round-robin partitioning; this one sets the key explicitly because
// spec.md §3/§6 requires sagaId to route every message for one saga onto
// the same partition.
type Producer struct {
	client sarama.SyncProducer
}

// NewProducer dials host and configures a hash partitioner so a given key
// always maps to the same partition (spec.md §3 "sagaId ... used as the
// partition key on every topic").
func NewProducer(host string) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	sp, err := sarama.NewSyncProducer([]string{host}, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer: %w", err)
	}
	return &Producer{client: sp}, nil
}

// Publish sends one message to topic, keyed by key (the sagaId for every
// saga-scoped topic in spec.md §6, restaurantId/customerId for the two
// replica topics in SPEC_FULL.md §12).
//
// Publish is called by the outbox sweeper after its transaction has
// already committed (spec.md §5: "a transaction is never held open across
// a log publish; publish happens after commit") — this method never opens
// one.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := p.client.SendMessage(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return apperr.Transport(fmt.Sprintf("kafka: publish to %s", topic), err)
		}
		return nil
	case <-ctx.Done():
		return apperr.Transport(fmt.Sprintf("kafka: publish to %s", topic), ctx.Err())
	}
}

// Close releases the underlying sarama client.
func (p *Producer) Close() error {
	return p.client.Close()
}
