package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Record is the read-model document of a posted transaction
type Record struct {
	LedgerTransactionID   uuid.UUID          `json:"ledger_transaction_id" bson:"ledger_transaction_id"`
	TenantID              string             `json:"tenant_id" bson:"tenant_id"`
	Environment           shared.Environment `json:"environment" bson:"environment"`
	ExternalTransactionID string             `json:"external_transaction_id,omitempty" bson:"external_transaction_id,omitempty"`
	CorrelationID         string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Operation             shared.Operation   `json:"operation" bson:"operation"`
	Amount                int64              `json:"amount" bson:"amount"`
	Currency              string             `json:"currency" bson:"currency"`
	AccountIDs            []uuid.UUID        `json:"account_ids" bson:"account_ids"`
	Legs                  []shared.PostedLeg `json:"legs" bson:"legs"`
	PostedAt              time.Time          `json:"posted_at" bson:"posted_at"`
	ProjectedAt           time.Time          `json:"projected_at" bson:"projected_at"`
}

// FromEvent builds a record from a posted-transaction event
func FromEvent(event *shared.TransactionPosted) *Record {
	accountIDs := make([]uuid.UUID, 0, len(event.Legs))
	for _, leg := range event.Legs {
		accountIDs = append(accountIDs, leg.AccountID)
	}
	return &Record{
		LedgerTransactionID:   event.LedgerTransactionID,
		TenantID:              event.TenantID,
		Environment:           event.Environment,
		ExternalTransactionID: event.ExternalTransactionID,
		CorrelationID:         event.CorrelationID,
		Operation:             event.Operation,
		Amount:                event.Amount,
		Currency:              event.Currency,
		AccountIDs:            accountIDs,
		Legs:                  event.Legs,
		PostedAt:              event.Timestamp,
		ProjectedAt:           time.Now().UTC(),
	}
}

// AccountFilter selects the records of one ledger account inside a tenant environment
type AccountFilter struct {
	TenantID    string
	Environment shared.Environment
	AccountID   uuid.UUID
}

// Repository stores the posted-transaction projection
type Repository interface {
	// Upsert is keyed by LedgerTransactionID so replays of an event are harmless
	Upsert(ctx context.Context, record *Record) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Record, error)
	GetByAccount(ctx context.Context, filter AccountFilter, limit, offset int) ([]*Record, error)
	CountByAccount(ctx context.Context, filter AccountFilter) (int64, error)
}

// ErrRecordNotFound indicates a transaction missing from the projection
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "posted transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
