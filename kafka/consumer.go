package kafka

import (
	"fmt"
	"sync"

	"github.com/Shopify/sarama"
)

// Consumer fans out across every partition of one topic and merges them
// into a single pair of channels. The teacher's consumer (kafka/consumer.go)
// hardcoded ConsumePartition(topic, 0, ...) — a single partition, a single
// worker. spec.md §5 requires "N concurrent workers per topic, one per
// partition in the common case"; this discovers the partition set from the
// broker and runs one sarama.PartitionConsumer per partition.
type Consumer struct {
	consumer   sarama.Consumer
	partitions []sarama.PartitionConsumer
	messages   chan *sarama.ConsumerMessage
	errors     chan *sarama.ConsumerError
	wg         sync.WaitGroup
}

// NewConsumer dials host and starts one partition worker per partition of
// topic, each starting from the oldest retained offset.
func NewConsumer(host string, topic string) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Return.Errors = true

	conn, err := sarama.NewConsumer([]string{host}, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer: %w", err)
	}

	partitionIDs, err := conn.Partitions(topic)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kafka: list partitions for %s: %w", topic, err)
	}

	c := &Consumer{
		consumer: conn,
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError),
	}

	for _, id := range partitionIDs {
		pc, err := conn.ConsumePartition(topic, id, sarama.OffsetOldest)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("kafka: consume %s partition %d: %w", topic, id, err)
		}
		c.partitions = append(c.partitions, pc)
		c.fanIn(pc)
	}

	return c, nil
}

func (c *Consumer) fanIn(pc sarama.PartitionConsumer) {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for msg := range pc.Messages() {
			c.messages <- msg
		}
	}()
	go func() {
		defer c.wg.Done()
		for err := range pc.Errors() {
			c.errors <- err
		}
	}()
}

// Messages returns the merged message stream across every partition.
// Per-partition order is preserved; cross-partition order is not (spec.md
// §5 "cross-saga order is undefined" — sagas on different partitions may
// interleave).
func (c *Consumer) Messages() <-chan *sarama.ConsumerMessage {
	return c.messages
}

// Errors returns the merged error stream across every partition.
func (c *Consumer) Errors() <-chan *sarama.ConsumerError {
	return c.errors
}

// Close stops every partition worker and releases the client.
func (c *Consumer) Close() error {
	for _, pc := range c.partitions {
		_ = pc.Close()
	}
	c.wg.Wait()
	close(c.messages)
	close(c.errors)
	return c.consumer.Close()
}
