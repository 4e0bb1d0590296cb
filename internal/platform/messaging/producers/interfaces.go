package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes JSON values to a single topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error
	Close() error
}

// DeadLetterPublisher parks messages that can never be processed
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CorrelationHeader carries the request correlation id on every message
const CorrelationHeader = "correlation-id"
