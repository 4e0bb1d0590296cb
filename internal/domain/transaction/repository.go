package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Repository is the transaction registry store
type Repository interface {
	// CreatePending inserts a pending row. It returns false without error when
	// another row already holds the same idempotency key.
	CreatePending(ctx context.Context, txn *Transaction) (bool, error)
	GetByIdempotencyKey(ctx context.Context, tenantID string, env shared.Environment, idempotencyKey string) (*Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// MarkPosted and MarkFailed only move rows that are still pending
	MarkPosted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// ListStalePending returns pending rows created before olderThan, oldest
	// first. Empty tenantID or env match every tenant or environment.
	ListStalePending(ctx context.Context, tenantID string, env shared.Environment, olderThan time.Time, limit int) ([]*Transaction, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing registry row
type ErrTransactionNotFound struct {
	IdempotencyKey string
	ID             uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	if e.ID != uuid.Nil {
		return "transaction not found: " + e.ID.String()
	}
	return "transaction not found for idempotency key: " + e.IdempotencyKey
}

func (e ErrTransactionNotFound) Is(target error) bool {
	_, ok := target.(ErrTransactionNotFound)
	return ok
}

// ErrIdempotencyConflict is returned when an idempotency key is already held
// by a transaction that is not posted
type ErrIdempotencyConflict struct {
	IdempotencyKey string
	TransactionID  uuid.UUID
	Status         Status
}

func (e ErrIdempotencyConflict) Error() string {
	return fmt.Sprintf("idempotency conflict: key %q is held by transaction %s in status %s", e.IdempotencyKey, e.TransactionID, e.Status)
}

func (e ErrIdempotencyConflict) Is(target error) bool {
	_, ok := target.(ErrIdempotencyConflict)
	return ok
}

// ErrInvalidTransition indicates an attempt to leave a terminal state
type ErrInvalidTransition struct {
	TransactionID uuid.UUID
	From          Status
	To            Status
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("transaction %s cannot move from %s to %s", e.TransactionID, e.From, e.To)
}

func (e ErrInvalidTransition) Is(target error) bool {
	_, ok := target.(ErrInvalidTransition)
	return ok
}
