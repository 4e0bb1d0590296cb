package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
)

// MaxActivityPage bounds the page number so the skip stays in range
const MaxActivityPage = 100000

// ActivityServiceImpl implements the ActivityService interface
type ActivityServiceImpl struct {
	transactionRepo transaction.Repository
	activityRepo    activity.Repository
	logger          *slog.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(logger *slog.Logger, transactionRepo transaction.Repository, activityRepo activity.Repository) ActivityService {
	return &ActivityServiceImpl{
		transactionRepo: transactionRepo,
		activityRepo:    activityRepo,
		logger:          logger,
	}
}

func (s *ActivityServiceImpl) GetTransaction(ctx context.Context, tenantID string, env shared.Environment, id uuid.UUID) (*TransactionView, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, transaction.ErrTransactionNotFound{}) {
			s.logger.Error("Failed to get transaction by ID", "transaction_id", id.String(), "error", err)
		}
		return nil, err
	}
	// Rows of other tenants read as missing
	if txn.TenantID != tenantID || txn.Environment != env {
		return nil, transaction.ErrTransactionNotFound{ID: id}
	}

	view := &TransactionView{Transaction: txn}
	if txn.Status != transaction.StatusPosted {
		return view, nil
	}

	record, err := s.activityRepo.GetByTransactionID(ctx, id)
	switch {
	case err == nil:
		view.Posted = record
	case errors.Is(err, activity.ErrRecordNotFound{}):
		s.logger.Debug("Posted transaction not projected yet", "transaction_id", id.String())
	default:
		return nil, err
	}
	return view, nil
}

func (s *ActivityServiceImpl) GetAccountActivity(ctx context.Context, filter activity.AccountFilter, page, perPage int) ([]*activity.Record, int64, error) {
	switch {
	case page < 1 || page > MaxActivityPage:
		return nil, 0, shared.ErrValidation{Field: "page", Reason: fmt.Sprintf("must be between 1 and %d", MaxActivityPage)}
	case perPage < 1:
		return nil, 0, shared.ErrValidation{Field: "per_page", Reason: "must be positive"}
	}
	offset := (page - 1) * perPage

	records, err := s.activityRepo.GetByAccount(ctx, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.activityRepo.CountByAccount(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
