package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
)

// SubmissionService queues posting requests for the transaction processor
type SubmissionService interface {
	// Submit validates the request and publishes it, unless its idempotency
	// key already names a registry row, which is returned instead.
	Submit(ctx context.Context, request *shared.PostingRequest) (*Submission, error)
}

// ActivityService reads transaction status and the posted-transaction projection
type ActivityService interface {
	// GetTransaction returns ErrTransactionNotFound for unknown ids and for
	// transactions of another tenant environment
	GetTransaction(ctx context.Context, tenantID string, env shared.Environment, id uuid.UUID) (*TransactionView, error)

	// GetAccountActivity returns one page of posted transactions touching an
	// account together with the total count
	GetAccountActivity(ctx context.Context, filter activity.AccountFilter, page, perPage int) ([]*activity.Record, int64, error)
}

// Submission is the outcome of queueing a posting request
type Submission struct {
	IdempotencyKey string
	// Existing is set when the key was already registered
	Existing *transaction.Transaction
}

// TransactionView joins a registry row with its projection. Posted is nil
// until the outbox poller has projected the transaction.
type TransactionView struct {
	Transaction *transaction.Transaction
	Posted      *activity.Record
}
