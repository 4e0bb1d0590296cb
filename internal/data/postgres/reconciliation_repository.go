package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/reconciliation"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// ReconciliationRepository compares stored balances with the sum of entries
type ReconciliationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewReconciliationRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.Repository {
	return &ReconciliationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// FindBalanceDrift lists accounts whose stored raw balance differs from the
// debit-minus-credit total of their entries. Empty scope fields match everything.
func (r *ReconciliationRepository) FindBalanceDrift(ctx context.Context, scope reconciliation.Scope) ([]reconciliation.Drift, error) {
	query := `
		SELECT a.id, a.tenant_id, a.environment, a.external_account_id, a.currency,
		       COALESCE(b.raw_balance, 0) AS stored,
		       COALESCE(SUM(CASE WHEN e.direction = 'debit' THEN e.amount ELSE -e.amount END), 0) AS derived
		FROM ledger_accounts a
		LEFT JOIN account_balances b ON b.account_id = a.id
		LEFT JOIN ledger_entries e ON e.account_id = a.id
		WHERE ($1 = '' OR a.tenant_id = $1)
		  AND ($2 = '' OR a.environment = $2)
		GROUP BY a.id, a.tenant_id, a.environment, a.external_account_id, a.currency, b.raw_balance
		HAVING COALESCE(b.raw_balance, 0) <> COALESCE(SUM(CASE WHEN e.direction = 'debit' THEN e.amount ELSE -e.amount END), 0)
		ORDER BY a.tenant_id, a.environment, a.external_account_id
	`

	rows, err := r.querier.Query(ctx, query, scope.TenantID, string(scope.Environment))
	if err != nil {
		r.logger.Error("Failed to query balance drift", "tenant_id", scope.TenantID, "error", err)
		return nil, fmt.Errorf("failed to query balance drift: %w", err)
	}
	defer rows.Close()

	var drifts []reconciliation.Drift
	for rows.Next() {
		var d reconciliation.Drift
		if err := rows.Scan(
			&d.AccountID,
			&d.TenantID,
			&d.Environment,
			&d.ExternalAccountID,
			&d.Currency,
			&d.StoredRawBalance,
			&d.EntryRawBalance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan balance drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over balance drift: %w", err)
	}

	return drifts, nil
}
