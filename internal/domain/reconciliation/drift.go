package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Drift is an account whose stored raw balance disagrees with its entries
type Drift struct {
	AccountID         uuid.UUID          `json:"account_id"`
	TenantID          string             `json:"tenant_id"`
	Environment       shared.Environment `json:"environment"`
	ExternalAccountID string             `json:"external_account_id"`
	Currency          string             `json:"currency"`
	StoredRawBalance  int64              `json:"stored_raw_balance"`
	EntryRawBalance   int64              `json:"entry_raw_balance"`
}

// Difference is stored minus recomputed
func (d Drift) Difference() int64 {
	return d.StoredRawBalance - d.EntryRawBalance
}

// Scope narrows a reconciliation run. Empty fields match everything.
type Scope struct {
	TenantID    string
	Environment shared.Environment
}

// Repository computes reconciliation views over the ledger tables
type Repository interface {
	// FindBalanceDrift recomputes sum(debits) - sum(credits) per account and
	// returns the accounts whose stored raw balance differs
	FindBalanceDrift(ctx context.Context, scope Scope) ([]Drift, error)
}
