package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/messaging/producers"
	postingsvc "github.com/ledger-posting-engine/internal/posting/service"
	"github.com/segmentio/kafka-go"
)

// SubmissionServiceImpl implements the SubmissionService interface
type SubmissionServiceImpl struct {
	validator       postingsvc.RequestValidator
	transactionRepo transaction.Repository
	producer        producers.MessagePublisher
	logger          *slog.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(logger *slog.Logger, validator postingsvc.RequestValidator, transactionRepo transaction.Repository, producer producers.MessagePublisher) SubmissionService {
	return &SubmissionServiceImpl{
		validator:       validator,
		transactionRepo: transactionRepo,
		producer:        producer,
		logger:          logger,
	}
}

// Submit rejects malformed requests up front so they never reach the topic.
// The registry lookup is advisory; the processor's claim is what enforces
// idempotency.
func (s *SubmissionServiceImpl) Submit(ctx context.Context, request *shared.PostingRequest) (*Submission, error) {
	if err := s.validator.Validate(ctx, request); err != nil {
		return nil, err
	}

	existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, request.TenantID, request.Environment, request.IdempotencyKey)
	switch {
	case err == nil:
		s.logger.Info("Found existing transaction with idempotency key",
			"idempotency_key", request.IdempotencyKey,
			"transaction_id", existing.ID.String(),
			"status", string(existing.Status),
		)
		return &Submission{IdempotencyKey: request.IdempotencyKey, Existing: existing}, nil
	case !errors.Is(err, transaction.ErrTransactionNotFound{}):
		s.logger.Error("Failed to check for existing transaction with idempotency key",
			"idempotency_key", request.IdempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	var headers []kafka.Header
	if request.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: producers.CorrelationHeader, Value: []byte(request.CorrelationID)})
	}

	if err := s.producer.Publish(ctx, PartitionKey(request), request, headers...); err != nil {
		s.logger.Error("Failed to publish posting request",
			"tenant_id", request.TenantID,
			"idempotency_key", request.IdempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to publish posting request: %w", err)
	}

	s.logger.Info("Posting request published",
		"tenant_id", request.TenantID,
		"environment", request.Environment.String(),
		"idempotency_key", request.IdempotencyKey,
		"amount", request.Amount,
		"currency", request.Currency,
	)

	return &Submission{IdempotencyKey: request.IdempotencyKey}, nil
}

// PartitionKey routes every request of one tenant environment to the same
// partition so they are processed in submission order.
func PartitionKey(request *shared.PostingRequest) string {
	return request.TenantID + "/" + request.Environment.String()
}
