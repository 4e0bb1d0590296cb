package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceRepository_Apply(t *testing.T) {
	ctx := context.Background()
	acc := &account.LedgerAccount{
		ID:                uuid.New(),
		TenantID:          "tenant-1",
		Environment:       shared.EnvironmentSandbox,
		ExternalAccountID: "cust-1",
		Currency:          "USD",
		Classification:    account.ClassificationLiability,
	}
	query := `INSERT INTO account_balances .* ON CONFLICT \(account_id\) DO UPDATE .* RETURNING raw_balance`

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &BalanceRepository{querier: mock, logger: newTestLogger()}

	t.Run("credit subtracts from raw balance", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(acc.ID, acc.TenantID, acc.Environment, acc.Currency, int64(-2500), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"raw_balance"}).AddRow(int64(-2500)))

		raw, err := repo.Apply(ctx, acc, ledger.DirectionCredit, 2500)
		require.NoError(t, err)
		assert.Equal(t, int64(-2500), raw)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("debit adds to raw balance", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(acc.ID, acc.TenantID, acc.Environment, acc.Currency, int64(1000), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"raw_balance"}).AddRow(int64(-1500)))

		raw, err := repo.Apply(ctx, acc, ledger.DirectionDebit, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(-1500), raw)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(acc.ID, acc.TenantID, acc.Environment, acc.Currency, int64(1000), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		_, err := repo.Apply(ctx, acc, ledger.DirectionDebit, 1000)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBalanceRepository_Get(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now()
	query := `SELECT account_id, tenant_id, environment, raw_balance, currency, updated_at FROM account_balances WHERE account_id = \$1`

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &BalanceRepository{querier: mock, logger: newTestLogger()}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accountID).WillReturnRows(
			pgxmock.NewRows([]string{"account_id", "tenant_id", "environment", "raw_balance", "currency", "updated_at"}).
				AddRow(accountID, "tenant-1", shared.EnvironmentSandbox, int64(4200), "USD", now))

		b, err := repo.Get(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, &balance.Balance{
			AccountID:   accountID,
			TenantID:    "tenant-1",
			Environment: shared.EnvironmentSandbox,
			RawBalance:  4200,
			Currency:    "USD",
			UpdatedAt:   now,
		}, b)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accountID).WillReturnError(pgx.ErrNoRows)

		b, err := repo.Get(ctx, accountID)
		assert.Nil(t, b)
		assert.ErrorIs(t, err, balance.ErrBalanceNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
