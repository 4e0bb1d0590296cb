package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

// ReasonHeader names why a message was parked
const ReasonHeader = "dlq-reason"

var ErrDLQDisabled = errors.New("dead letter queue is disabled")

// DeadLetter is the envelope written to the DLQ topic. Payload holds the
// original value verbatim when it is valid JSON; RawPayload holds it otherwise.
type DeadLetter struct {
	Key        string          `json:"original_key"`
	Payload    json.RawMessage `json:"original_value,omitempty"`
	RawPayload string          `json:"original_raw_value,omitempty"`
	Reason     string          `json:"dlq_reason"`
	FailedAt   time.Time       `json:"failed_at"`
}

func newDeadLetter(key string, value []byte, reason string, at time.Time) DeadLetter {
	letter := DeadLetter{Key: key, Reason: reason, FailedAt: at}
	if json.Valid(value) {
		letter.Payload = json.RawMessage(value)
	} else {
		letter.RawPayload = string(value)
	}
	return letter
}

// DLQProducer parks posting requests the processor can never apply. Without
// a configured topic it only logs and reports ErrDLQDisabled.
type DLQProducer struct {
	logger *slog.Logger
	topic  *TopicProducer
}

func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	logger = logger.With("component", "dlq_producer")
	if cfg.DLQTopic == "" {
		logger.Info("No DLQ topic configured, rejected posting requests are only logged")
		return &DLQProducer{logger: logger}, nil
	}

	topic, err := newTopicProducer(ctx, logger, cfg, cfg.DLQTopic, kafka.RequireAll)
	if err != nil {
		return nil, err
	}
	return &DLQProducer{logger: logger, topic: topic}, nil
}

func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p.topic == nil {
		p.logger.Warn("Dropping rejected message", "key", key, "reason", reason)
		return ErrDLQDisabled
	}

	letter := newDeadLetter(key, originalMessageValue, reason, time.Now().UTC())
	if err := p.topic.Publish(ctx, key, letter, kafka.Header{Key: ReasonHeader, Value: []byte(reason)}); err != nil {
		return err
	}
	p.logger.Info("Parked message on DLQ", "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p.topic == nil {
		return nil
	}
	return p.topic.Close()
}
