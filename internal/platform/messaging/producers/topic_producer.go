package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

// TopicProducer writes JSON messages synchronously to one topic
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewPostingRequestProducer publishes posting requests accepted by the
// asynchronous API endpoint.
func NewPostingRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.PostingTopic, kafka.RequireOne)
}

// NewPostedEventProducer publishes "transaction posted" notifications drained
// from the outbox.
func NewPostedEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TopicProducer, error) {
	return newTopicProducer(ctx, logger, cfg, cfg.PostedEventTopic, kafka.RequireAll)
}

func newTopicProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string, acks kafka.RequiredAcks) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}
	logger = logger.With("topic", topic)

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for topic %s: %w", topic, err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		WriteTimeout: cfg.MaxWait,
	}

	return &TopicProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish marshals value to JSON and writes it keyed by key. Messages with the
// same key land on the same partition.
func (p *TopicProducer) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   jsonValue,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message", "key", key, "error", err)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message", "key", key)
	return nil
}

func (p *TopicProducer) Topic() string {
	return p.topic
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka message producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
