// Package postgres provides PostgreSQL implementations of the ledger repositories.
// Every repository can be bound to a pgx.Tx with WithTx so the posting engine can
// compose them into one atomic unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const selectAccountByKey = `
		SELECT id, tenant_id, environment, external_account_id, currency, classification, created_at
		FROM ledger_accounts
		WHERE tenant_id = $1 AND environment = $2 AND external_account_id = $3 AND currency = $4
	`

// FindOrCreate returns the existing account for key or creates it. A concurrent
// creator winning the unique constraint is resolved by fetching its row.
// The classification is only validated when a row has to be created.
func (r *AccountRepository) FindOrCreate(ctx context.Context, key account.Key, classification account.Classification) (*account.LedgerAccount, bool, error) {
	existing, err := r.GetByKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound{}) {
		return nil, false, err
	}

	acc, err := account.NewLedgerAccount(key, classification)
	if err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO ledger_accounts (id, tenant_id, environment, external_account_id, currency, classification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, environment, external_account_id, currency) DO NOTHING
		RETURNING id
	`

	var insertedID = acc.ID
	err = r.querier.QueryRow(ctx, query,
		acc.ID,
		acc.TenantID,
		acc.Environment,
		acc.ExternalAccountID,
		acc.Currency,
		acc.Classification,
		acc.CreatedAt,
	).Scan(&insertedID)
	if err == nil {
		r.logger.Info("Created ledger account",
			"account_id", acc.ID.String(),
			"tenant_id", acc.TenantID,
			"external_account_id", acc.ExternalAccountID,
			"classification", string(acc.Classification),
		)
		return acc, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to create ledger account", "external_account_id", key.ExternalAccountID, "error", err)
		return nil, false, fmt.Errorf("failed to create ledger account: %w", err)
	}

	// Lost the race: another posting created the account first
	r.logger.Debug("Ledger account created concurrently, fetching", "external_account_id", key.ExternalAccountID)
	winner, err := r.GetByKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

// GetByKey retrieves an account by its natural identity
func (r *AccountRepository) GetByKey(ctx context.Context, key account.Key) (*account.LedgerAccount, error) {
	var acc account.LedgerAccount
	err := r.querier.QueryRow(ctx, selectAccountByKey,
		key.TenantID,
		key.Environment,
		key.ExternalAccountID,
		key.Currency,
	).Scan(
		&acc.ID,
		&acc.TenantID,
		&acc.Environment,
		&acc.ExternalAccountID,
		&acc.Currency,
		&acc.Classification,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{ExternalAccountID: key.ExternalAccountID}
		}
		r.logger.Error("Failed to get ledger account", "external_account_id", key.ExternalAccountID, "error", err)
		return nil, fmt.Errorf("failed to get ledger account: %w", err)
	}

	return &acc, nil
}
