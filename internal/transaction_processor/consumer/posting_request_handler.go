package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/messaging/consumers"
	"github.com/ledger-posting-engine/internal/platform/messaging/producers"
	"github.com/ledger-posting-engine/internal/posting/service"
)

// PostingRequestHandler posts requests consumed from Kafka
type PostingRequestHandler struct {
	postingService service.PostingService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

func NewPostingRequestHandler(
	logger *slog.Logger,
	postingService service.PostingService,
	producer producers.DeadLetterPublisher,
) *PostingRequestHandler {
	return &PostingRequestHandler{
		postingService: postingService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage returns nil once the message reached a final outcome: posted,
// replayed, or parked on the DLQ. Any other error makes the consumer retry.
func (h *PostingRequestHandler) HandleMessage(ctx context.Context, msg consumers.Message) error {
	key := string(msg.Key)

	var request shared.PostingRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		h.logger.Error("Failed to unmarshal posting request from Kafka message", "error", err, "message_key", key)
		return h.deadLetter(ctx, h.logger, msg, fmt.Sprintf("undecodable posting request: %s", err.Error()))
	}
	if request.CorrelationID == "" {
		request.CorrelationID = msg.Headers[producers.CorrelationHeader]
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received posting request",
		"tenant_id", request.TenantID,
		"idempotency_key", request.IdempotencyKey,
		"amount", request.Amount,
	)

	result, err := h.postingService.PostTransaction(ctx, &request)
	if err == nil {
		logger.Info("Posting request handled",
			"transaction_id", result.TransactionID.String(),
			"status", string(result.Status),
			"replayed", result.Replayed,
		)
		return nil
	}

	if !isFinal(result, err) {
		logger.Error("Posting attempt did not complete, will retry", "idempotency_key", request.IdempotencyKey, "error", err)
		return fmt.Errorf("posting request %s failed: %w", request.IdempotencyKey, err)
	}

	logger.Warn("Posting request rejected", "idempotency_key", request.IdempotencyKey, "error", err)
	return h.deadLetter(ctx, logger, msg, err.Error())
}

// isFinal reports whether retrying the same request could change its outcome.
// A failed posting has its reason recorded, and validation or key conflicts
// repeat identically.
func isFinal(result *service.Result, err error) bool {
	if result != nil && result.Status == transaction.StatusFailed {
		return true
	}
	return errors.Is(err, shared.ErrValidation{}) || errors.Is(err, transaction.ErrIdempotencyConflict{})
}

func (h *PostingRequestHandler) deadLetter(ctx context.Context, logger *slog.Logger, msg consumers.Message, reason string) error {
	err := h.producer.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason)
	if err == nil || errors.Is(err, producers.ErrDLQDisabled) {
		return nil
	}
	logger.Error("Failed to publish message to DLQ", "dlq_error", err, "message_key", string(msg.Key))
	return fmt.Errorf("failed to dead-letter message %s: %w", string(msg.Key), err)
}
