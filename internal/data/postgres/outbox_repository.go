package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

const outboxColumnList = `id, transaction_id, tenant_id, payload, status, attempts,
	COALESCE(last_error, ''), created_at, last_attempt_at`

type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{querier: db.Pool(), logger: logger}
}

// WithTx binds the repository to tx so the event row commits together with
// the entries and balances of the posting
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, `
		INSERT INTO transaction_outbox (transaction_id, tenant_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		message.TransactionID, message.TenantID, message.Payload,
		message.Status, message.Attempts, message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		r.logger.Error("Failed to insert outbox message", "transaction_id", message.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}
	return nil
}

func (r *OutboxRepository) Pending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx,
		`SELECT `+outboxColumnList+` FROM transaction_outbox WHERE status = $1 ORDER BY id LIMIT $2`,
		shared.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Message, error) {
		var m outbox.Message
		err := row.Scan(&m.ID, &m.TransactionID, &m.TenantID, &m.Payload, &m.Status,
			&m.Attempts, &m.LastError, &m.CreatedAt, &m.LastAttemptAt)
		return &m, err
	})
	if err != nil {
		r.logger.Error("Failed to read pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to read pending outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id int64) error {
	return r.update(ctx, id, `
		UPDATE transaction_outbox SET status = $1, last_attempt_at = $2, last_error = NULL
		WHERE id = $3`,
		shared.OutboxStatusProcessed, time.Now().UTC(), id)
}

func (r *OutboxRepository) SaveAttempt(ctx context.Context, message *outbox.Message) error {
	return r.update(ctx, message.ID, `
		UPDATE transaction_outbox SET attempts = $1, status = $2, last_error = $3, last_attempt_at = $4
		WHERE id = $5`,
		message.Attempts, message.Status, message.LastError, message.LastAttemptAt, message.ID)
}

func (r *OutboxRepository) update(ctx context.Context, id int64, sql string, args ...any) error {
	tag, err := r.querier.Exec(ctx, sql, args...)
	if err != nil {
		r.logger.Error("Failed to update outbox message", "id", id, "error", err)
		return fmt.Errorf("failed to update outbox message %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
