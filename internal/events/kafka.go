package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes messages to a Kafka topic keyed by channel, so the
// events of one identity stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	b, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Channel),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(msg.Event)},
		},
	})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
