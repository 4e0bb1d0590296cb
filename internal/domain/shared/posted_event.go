package shared

import (
	"time"

	"github.com/google/uuid"
)

// PostedLeg is one side of a posted transaction as seen by downstream consumers
type PostedLeg struct {
	AccountID         uuid.UUID `json:"account_id" bson:"account_id"`
	ExternalAccountID string    `json:"external_account_id" bson:"external_account_id"`
	Classification    string    `json:"classification" bson:"classification"`
	Direction         string    `json:"direction" bson:"direction"`
	Amount            int64     `json:"amount" bson:"amount"`
	RawBalanceAfter   int64     `json:"raw_balance_after" bson:"raw_balance_after"`
}

// TransactionPosted is the notification emitted once a transaction reaches posted
type TransactionPosted struct {
	TenantID              string      `json:"tenant_id"`
	Environment           Environment `json:"environment"`
	LedgerTransactionID   uuid.UUID   `json:"ledger_transaction_id"`
	ExternalTransactionID string      `json:"external_transaction_id,omitempty"`
	CorrelationID         string      `json:"correlation_id,omitempty"`
	Operation             Operation   `json:"operation"`
	Amount                int64       `json:"amount"`
	Currency              string      `json:"currency"`
	Legs                  []PostedLeg `json:"legs"`
	Timestamp             time.Time   `json:"timestamp"`
}
