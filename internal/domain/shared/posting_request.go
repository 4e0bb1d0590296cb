package shared

import (
	"time"
)

// PostingRequest asks the ledger to move Amount minor units from the source
// account to the destination account. Accounts are named by their external ids.
type PostingRequest struct {
	TenantID                  string      `json:"tenant_id"`
	Environment               Environment `json:"environment"`
	SourceAccountID           string      `json:"source_account_id"`
	DestinationAccountID      string      `json:"destination_account_id"`
	Amount                    int64       `json:"amount"` // Stored in cents/minor units
	Currency                  string      `json:"currency"`
	ExternalTransactionID     string      `json:"external_transaction_id,omitempty"`
	IdempotencyKey            string      `json:"idempotency_key"`
	CorrelationID             string      `json:"correlation_id,omitempty"`
	Deposit                   bool        `json:"deposit,omitempty"`
	SourceClassification      string      `json:"source_classification,omitempty"`
	DestinationClassification string      `json:"destination_classification,omitempty"`
	RequestedAt               time.Time   `json:"requested_at"`
}

// BalanceQuery identifies a single ledger account for a balance read
type BalanceQuery struct {
	TenantID          string
	Environment       Environment
	ExternalAccountID string
	Currency          string
}
