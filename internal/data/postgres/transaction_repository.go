package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `id, tenant_id, environment, idempotency_key, external_transaction_id, correlation_id, status, failure_reason, created_at, updated_at`

// CreatePending inserts the pending row. The unique idempotency constraint
// turns a concurrent duplicate into a no-op reported as created == false.
func (r *TransactionRepository) CreatePending(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	query := `
		INSERT INTO ledger_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, environment, idempotency_key) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.TenantID,
		txn.Environment,
		txn.IdempotencyKey,
		nullableString(txn.ExternalTransactionID),
		nullableString(txn.CorrelationID),
		txn.Status,
		txn.FailureReason,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create pending transaction", "idempotency_key", txn.IdempotencyKey, "error", err)
		return false, fmt.Errorf("failed to create pending transaction: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// GetByIdempotencyKey returns ErrTransactionNotFound when the key is unused
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tenantID string, env shared.Environment, idempotencyKey string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE tenant_id = $1 AND environment = $2 AND idempotency_key = $3
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, tenantID, env, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{IdempotencyKey: idempotencyKey}
		}
		r.logger.Error("Failed to get transaction by idempotency key", "idempotency_key", idempotencyKey, "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) MarkPosted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE ledger_transactions
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return r.transition(ctx, query, id, transaction.StatusPosted,
		transaction.StatusPosted, time.Now().UTC(), id, transaction.StatusPending)
}

func (r *TransactionRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE ledger_transactions
		SET status = $1, failure_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.transition(ctx, query, id, transaction.StatusFailed,
		transaction.StatusFailed, reason, time.Now().UTC(), id, transaction.StatusPending)
}

func (r *TransactionRepository) transition(ctx context.Context, query string, id uuid.UUID, to transaction.Status, args ...any) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "transaction_id", id.String(), "status", string(to), "error", err)
		return fmt.Errorf("failed to mark transaction %s: %w", to, err)
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return transaction.ErrInvalidTransition{TransactionID: id, From: current.Status, To: to}
}

// ListStalePending returns pending rows created before olderThan, oldest first.
// The tenant and environment filters apply before the limit.
func (r *TransactionRepository) ListStalePending(ctx context.Context, tenantID string, env shared.Environment, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM ledger_transactions
		WHERE status = $1 AND created_at < $2
		  AND ($3 = '' OR tenant_id = $3)
		  AND ($4 = '' OR environment = $4)
		ORDER BY created_at ASC
		LIMIT $5
	`

	rows, err := r.querier.Query(ctx, query, transaction.StatusPending, olderThan, tenantID, string(env), limit)
	if err != nil {
		r.logger.Error("Failed to list stale pending transactions", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		txn           transaction.Transaction
		externalID    *string
		correlationID *string
	)
	err := row.Scan(
		&txn.ID,
		&txn.TenantID,
		&txn.Environment,
		&txn.IdempotencyKey,
		&externalID,
		&correlationID,
		&txn.Status,
		&txn.FailureReason,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if externalID != nil {
		txn.ExternalTransactionID = *externalID
	}
	if correlationID != nil {
		txn.CorrelationID = *correlationID
	}
	return &txn, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
