package balance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/ledger"
)

// Repository is the balance store
type Repository interface {
	// Apply atomically adds the signed amount to the account's raw balance and
	// returns the new raw balance
	Apply(ctx context.Context, acc *account.LedgerAccount, direction ledger.Direction, amount int64) (int64, error)
	Get(ctx context.Context, accountID uuid.UUID) (*Balance, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrBalanceNotFound indicates an account without a balance row
type ErrBalanceNotFound struct {
	AccountID uuid.UUID
}

func (e ErrBalanceNotFound) Error() string {
	return "balance not found for account: " + e.AccountID.String()
}

func (e ErrBalanceNotFound) Is(target error) bool {
	_, ok := target.(ErrBalanceNotFound)
	return ok
}
