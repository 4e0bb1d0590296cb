package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// EventDispatcher delivers one outbox message to its consumers
type EventDispatcher interface {
	Dispatch(ctx context.Context, message *outbox.Message) error
}

// EventDispatcherImpl projects posted events into the activity read model and
// publishes them to Kafka before marking the outbox row processed. Both sinks
// tolerate the same event twice, so a retry after a partial failure is safe.
type EventDispatcherImpl struct {
	outboxRepo   outbox.Repository
	activityRepo activity.Repository
	publisher    producers.MessagePublisher
	logger       *slog.Logger
}

func NewEventDispatcher(
	outboxRepo outbox.Repository,
	activityRepo activity.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) EventDispatcher {
	return &EventDispatcherImpl{
		outboxRepo:   outboxRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       logger,
	}
}

// ErrUndecodablePayload marks an outbox row whose payload can never be delivered
type ErrUndecodablePayload struct {
	OutboxID int64
	Err      error
}

func (e ErrUndecodablePayload) Error() string {
	return fmt.Sprintf("unmarshal payload for outbox %d failed: %v", e.OutboxID, e.Err)
}

func (e ErrUndecodablePayload) Unwrap() error {
	return e.Err
}

// Dispatch leaves status bookkeeping of failures to the caller
func (p *EventDispatcherImpl) Dispatch(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		return ErrUndecodablePayload{OutboxID: message.ID, Err: err}
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}
	logger = logger.With("outbox_id", message.ID, "transaction_id", event.LedgerTransactionID.String())

	if err := p.activityRepo.Upsert(ctx, activity.FromEvent(event)); err != nil {
		logger.Error("Failed to project posted transaction", "error", err)
		return fmt.Errorf("failed to project transaction %s: %w", event.LedgerTransactionID.String(), err)
	}

	var headers []kafka.Header
	if event.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: producers.CorrelationHeader, Value: []byte(event.CorrelationID)})
	}
	// Keyed by tenant so one tenant's events keep their order on a partition
	if err := p.publisher.Publish(ctx, event.TenantID, event, headers...); err != nil {
		logger.Error("Failed to publish posted event", "error", err)
		return fmt.Errorf("failed to publish transaction %s: %w", event.LedgerTransactionID.String(), err)
	}

	if err := p.outboxRepo.MarkProcessed(ctx, message.ID); err != nil {
		logger.Error("Failed to mark outbox message processed", "error", err)
		return fmt.Errorf("event for %s delivered, but failed to mark outbox %d as PROCESSED: %w", event.LedgerTransactionID.String(), message.ID, err)
	}

	logger.Info("Posted event delivered")
	return nil
}
