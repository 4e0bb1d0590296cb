package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
)

// PostingService defines the interface for posting ledger transactions.
type PostingService interface {
	PostTransaction(ctx context.Context, request *shared.PostingRequest) (*Result, error)
}

// BalanceService reads account balances without touching the entry history
type BalanceService interface {
	GetAccountBalance(ctx context.Context, query shared.BalanceQuery) (*balance.View, error)
}

// Result describes the outcome of a posting attempt. It is also returned next
// to the error when an attempt fails after its transaction row was written.
type Result struct {
	TransactionID uuid.UUID          `json:"ledger_transaction_id"`
	Status        transaction.Status `json:"status"`
	Operation     shared.Operation   `json:"operation,omitempty"`
	Replayed      bool               `json:"replayed"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// RequestValidator rejects malformed requests before anything is written
type RequestValidator interface {
	Validate(ctx context.Context, request *shared.PostingRequest) error
}

// IdempotencyGuard owns the transaction registry row of an attempt
type IdempotencyGuard interface {
	// Claim returns the pending row created for this attempt, or the posted row
	// of an earlier attempt with replay set.
	Claim(ctx context.Context, request *shared.PostingRequest) (txn *transaction.Transaction, replay bool, err error)
	// Complete moves the claimed row to posted inside tx
	Complete(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) error
}

// AccountResolver maps external account ids onto ledger accounts
type AccountResolver interface {
	ResolvePair(ctx context.Context, tx pgx.Tx, request *shared.PostingRequest) (source, destination *account.LedgerAccount, err error)
}

// Journal writes the balanced entries of a transaction and the balance changes they cause
type Journal interface {
	Post(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, request *shared.PostingRequest, source, destination *account.LedgerAccount) (*shared.TransactionPosted, error)
}

// OutboxManager handles the creation of outbox entries for posted transactions
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, event *shared.TransactionPosted) error
}

// FailureRecorder handles recording failed transactions
type FailureRecorder interface {
	RecordFailure(ctx context.Context, txn *transaction.Transaction, failureReason string) error
}
