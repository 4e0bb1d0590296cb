package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type IdempotencyGuardImpl struct {
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

func NewIdempotencyGuard(transactionRepo transaction.Repository, logger *slog.Logger) service.IdempotencyGuard {
	return &IdempotencyGuardImpl{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// Claim looks the key up and creates the pending row when it is unused. When
// a concurrent attempt inserts first, the winner's row decides the outcome.
func (g *IdempotencyGuardImpl) Claim(ctx context.Context, request *shared.PostingRequest) (*transaction.Transaction, bool, error) {
	logger := g.logger
	if request.CorrelationID != "" {
		logger = g.logger.With("correlation_id", request.CorrelationID)
	}

	existing, err := g.transactionRepo.GetByIdempotencyKey(ctx, request.TenantID, request.Environment, request.IdempotencyKey)
	if err == nil {
		return g.settle(logger, existing)
	}
	if !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		return nil, false, shared.ErrPostingFailure{Reason: err.Error(), Err: err}
	}

	txn := transaction.NewPending(request)
	created, err := g.transactionRepo.CreatePending(ctx, txn)
	if err != nil {
		return nil, false, shared.ErrPostingFailure{Reason: err.Error(), Err: err}
	}
	if created {
		logger.Debug("Pending transaction created", "transaction_id", txn.ID.String(), "idempotency_key", request.IdempotencyKey)
		return txn, false, nil
	}

	logger.Info("Idempotency key claimed concurrently, re-reading", "idempotency_key", request.IdempotencyKey)
	existing, err = g.transactionRepo.GetByIdempotencyKey(ctx, request.TenantID, request.Environment, request.IdempotencyKey)
	if err != nil {
		return nil, false, shared.ErrPostingFailure{Reason: err.Error(), Err: err}
	}
	return g.settle(logger, existing)
}

// settle turns an existing row into a replay or a conflict. Pending rows are
// never resumed.
func (g *IdempotencyGuardImpl) settle(logger *slog.Logger, existing *transaction.Transaction) (*transaction.Transaction, bool, error) {
	if existing.Status == transaction.StatusPosted {
		return existing, true, nil
	}

	logger.Warn("Idempotency key held by unposted transaction",
		"transaction_id", existing.ID.String(),
		"idempotency_key", existing.IdempotencyKey,
		"status", string(existing.Status),
	)
	return nil, false, transaction.ErrIdempotencyConflict{
		IdempotencyKey: existing.IdempotencyKey,
		TransactionID:  existing.ID,
		Status:         existing.Status,
	}
}

// Complete marks the claimed row posted as part of tx
func (g *IdempotencyGuardImpl) Complete(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) error {
	if err := g.transactionRepo.WithTx(tx).MarkPosted(ctx, txn.ID); err != nil {
		return err
	}
	return txn.MarkPosted()
}
