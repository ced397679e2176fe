package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"boltgraph/internal/models"
)

// MutationProducer publishes graph Mutation messages.
type MutationProducer interface {
	WriteMutation(ctx context.Context, m models.Mutation) error
}

// Producer wraps a Kafka writer for publishing graph mutations.
type Producer struct {
	writer MessageWriter
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer MessageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// WriteMutation publishes a Mutation to Kafka, keyed by its idempotency ID
// so replays of one mutation land on the same partition.
func (p *Producer) WriteMutation(ctx context.Context, m models.Mutation) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(m.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	}

	return p.writer.WriteMessages(ctx, msg)
}
