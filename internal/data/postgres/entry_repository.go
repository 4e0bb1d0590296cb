package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// EntryRepository implements the ledger.Repository interface for PostgreSQL.
// Entries are append-only; the schema rejects updates and deletes.
type EntryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewEntryRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &EntryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *EntryRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &EntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *EntryRepository) Record(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, direction, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.TransactionID,
		entry.AccountID,
		entry.Direction,
		entry.Amount,
		entry.Currency,
		entry.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return ledger.ErrDuplicateEntry{EntryID: entry.ID}
		}
		r.logger.Error("Failed to record ledger entry",
			"transaction_id", entry.TransactionID.String(),
			"direction", string(entry.Direction),
			"error", err,
		)
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}

// ListByTransactionID returns the entries of a transaction, debit first
func (r *EntryRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error) {
	query := `
		SELECT id, transaction_id, account_id, direction, amount, currency, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY direction DESC
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(
			&e.ID,
			&e.TransactionID,
			&e.AccountID,
			&e.Direction,
			&e.Amount,
			&e.Currency,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}
