package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type FailureRecorderImpl struct {
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

func NewFailureRecorder(transactionRepo transaction.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// RecordFailure moves a pending transaction to failed. It runs outside the
// rolled back posting transaction, so nothing but the status and reason persist.
// A row found posted is returned as transaction.ErrInvalidTransition: the
// commit landed even though it reported an error.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, txn *transaction.Transaction, failureReason string) error {
	logger := r.logger
	if txn.CorrelationID != "" {
		logger = r.logger.With("correlation_id", txn.CorrelationID)
	}

	logger.Info("Recording failed transaction", "transaction_id", txn.ID.String(), "reason", failureReason)

	err := r.transactionRepo.MarkFailed(ctx, txn.ID, failureReason)
	if err != nil {
		var transition transaction.ErrInvalidTransition
		if errors.As(err, &transition) && transition.From == transaction.StatusFailed {
			logger.Info("Transaction already marked as failed", "transaction_id", txn.ID.String())
			return nil
		}
		if errors.As(err, &transition) && transition.From == transaction.StatusPosted {
			logger.Warn("Transaction is posted, not marking it failed", "transaction_id", txn.ID.String())
			return err
		}
		logger.Error("Failed to mark transaction as failed", "transaction_id", txn.ID.String(), "error", err)
		return err
	}

	if err := txn.MarkFailed(failureReason); err != nil {
		return err
	}
	logger.Info("Successfully marked transaction as failed", "transaction_id", txn.ID.String())
	return nil
}
