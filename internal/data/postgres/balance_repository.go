package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBalanceRepository(logger *slog.Logger, db *persistence.PostgresDB) balance.Repository {
	return &BalanceRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *BalanceRepository) WithTx(tx pgx.Tx) balance.Repository {
	return &BalanceRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Apply adds the signed delta of one entry to the account's raw balance and
// returns the new value. The increment happens inside the upsert so concurrent
// postings serialise on the row lock instead of overwriting each other.
func (r *BalanceRepository) Apply(ctx context.Context, acc *account.LedgerAccount, direction ledger.Direction, amount int64) (int64, error) {
	query := `
		INSERT INTO account_balances (account_id, tenant_id, environment, currency, raw_balance, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE
		SET raw_balance = account_balances.raw_balance + EXCLUDED.raw_balance,
		    updated_at = EXCLUDED.updated_at
		RETURNING raw_balance
	`

	var raw int64
	err := r.querier.QueryRow(ctx, query,
		acc.ID,
		acc.TenantID,
		acc.Environment,
		acc.Currency,
		balance.Delta(direction, amount),
		time.Now().UTC(),
	).Scan(&raw)
	if err != nil {
		r.logger.Error("Failed to apply balance change",
			"account_id", acc.ID.String(),
			"direction", string(direction),
			"error", err,
		)
		return 0, fmt.Errorf("failed to apply balance change: %w", err)
	}

	return raw, nil
}

func (r *BalanceRepository) Get(ctx context.Context, accountID uuid.UUID) (*balance.Balance, error) {
	query := `
		SELECT account_id, tenant_id, environment, raw_balance, currency, updated_at
		FROM account_balances
		WHERE account_id = $1
	`

	var b balance.Balance
	err := r.querier.QueryRow(ctx, query, accountID).Scan(
		&b.AccountID,
		&b.TenantID,
		&b.Environment,
		&b.RawBalance,
		&b.Currency,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, balance.ErrBalanceNotFound{AccountID: accountID}
		}
		r.logger.Error("Failed to get balance", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &b, nil
}
