package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

type BalanceServiceImpl struct {
	accountRepo account.Repository
	balanceRepo balance.Repository
	logger      *slog.Logger
}

func NewBalanceService(accountRepo account.Repository, balanceRepo balance.Repository, logger *slog.Logger) BalanceService {
	return &BalanceServiceImpl{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		logger:      logger,
	}
}

// GetAccountBalance returns the stored balance of one account together with its
// display form. An account that exists but was never posted to reads as zero.
func (s *BalanceServiceImpl) GetAccountBalance(ctx context.Context, query shared.BalanceQuery) (*balance.View, error) {
	if err := validateBalanceQuery(query); err != nil {
		return nil, err
	}

	acc, err := s.accountRepo.GetByKey(ctx, account.Key{
		TenantID:          query.TenantID,
		Environment:       query.Environment,
		ExternalAccountID: query.ExternalAccountID,
		Currency:          query.Currency,
	})
	if err != nil {
		return nil, err
	}

	b, err := s.balanceRepo.Get(ctx, acc.ID)
	if err != nil {
		if !errors.Is(err, balance.ErrBalanceNotFound{}) {
			s.logger.Error("Failed to read balance", "account_id", acc.ID.String(), "error", err)
			return nil, fmt.Errorf("failed to read balance: %w", err)
		}
		b = &balance.Balance{
			AccountID:   acc.ID,
			TenantID:    acc.TenantID,
			Environment: acc.Environment,
			Currency:    acc.Currency,
			UpdatedAt:   time.Now().UTC(),
		}
	}

	return balance.NewView(acc, b), nil
}

func validateBalanceQuery(q shared.BalanceQuery) error {
	switch {
	case q.TenantID == "":
		return shared.ErrValidation{Field: "tenant_id", Reason: "is required"}
	case !q.Environment.IsValid():
		return shared.ErrValidation{Field: "environment", Reason: fmt.Sprintf("%q is not recognized", q.Environment)}
	case q.ExternalAccountID == "":
		return shared.ErrValidation{Field: "external_account_id", Reason: "is required"}
	case len(q.Currency) != 3:
		return shared.ErrValidation{Field: "currency", Reason: "must be a 3-letter ISO code"}
	}
	return nil
}
