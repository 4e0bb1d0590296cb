package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	defaultFetchBackoff = time.Second
	defaultRetryBackoff = 2 * time.Second
)

// Message is the part of a Kafka message handlers see
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type MessageHandler func(ctx context.Context, msg Message) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group. Offsets are
// committed only after the handler succeeds; a failing message is retried
// until it succeeds or the context ends, so delivery is at least once.
type KafkaConsumer struct {
	reader       KafkaReader
	topic        string
	groupID      string
	fetchBackoff time.Duration
	retryBackoff time.Duration
	logger       *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}
	return &KafkaConsumer{
		logger:  logger,
		topic:   cfg.PostingTopic,
		groupID: cfg.ConsumerGroup,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.PostingTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
		fetchBackoff: defaultFetchBackoff,
		retryBackoff: defaultRetryBackoff,
	}
}

// Subscribe starts consuming in a background goroutine and returns at once.
// The goroutine stops when ctx is cancelled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	logger := c.logger.With("topic", c.topic, "group_id", c.groupID)
	logger.Info("Subscribed to Kafka topic")

	go c.run(ctx, logger, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, logger *slog.Logger, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Context canceled, stopping consumer")
				return
			}
			logger.Error("Failed to fetch message from Kafka", "error", err)
			if !sleep(ctx, c.fetchBackoff) {
				return
			}
			continue
		}

		msgLogger := logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
		msgLogger.Debug("Received message from Kafka")

		if !c.handle(ctx, msgLogger, handler, msg) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			msgLogger.Error("Failed to commit message after successful processing", "error", err)
		}
	}
}

// handle retries the handler on the same message. It reports false when ctx
// ended before the message was handled.
func (c *KafkaConsumer) handle(ctx context.Context, logger *slog.Logger, handler MessageHandler, msg kafka.Message) bool {
	message := Message{Key: msg.Key, Value: msg.Value, Headers: headerMap(msg.Headers)}
	for attempt := 1; ; attempt++ {
		err := handler(ctx, message)
		if err == nil {
			return true
		}
		logger.Error("Failed to process message, will retry", "attempt", attempt, "error", err)
		if !sleep(ctx, c.retryBackoff) {
			return false
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

func headerMap(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
