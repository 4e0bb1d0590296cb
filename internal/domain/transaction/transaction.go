package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Status is the lifecycle state of a ledger transaction
type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusPosted || s == StatusFailed
}

// CanTransitionTo allows only pending -> posted and pending -> failed
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

// Transaction is the registry row for one logical posting
type Transaction struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              string             `json:"tenant_id"`
	Environment           shared.Environment `json:"environment"`
	IdempotencyKey        string             `json:"idempotency_key"`
	ExternalTransactionID string             `json:"external_transaction_id,omitempty"`
	CorrelationID         string             `json:"correlation_id,omitempty"`
	Status                Status             `json:"status"`
	FailureReason         *string            `json:"failure_reason,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// NewPending creates the pending registry row for a posting request
func NewPending(request *shared.PostingRequest) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:                    uuid.New(),
		TenantID:              request.TenantID,
		Environment:           request.Environment,
		IdempotencyKey:        request.IdempotencyKey,
		ExternalTransactionID: request.ExternalTransactionID,
		CorrelationID:         request.CorrelationID,
		Status:                StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// MarkPosted moves a pending transaction to posted
func (t *Transaction) MarkPosted() error {
	return t.transition(StatusPosted, nil)
}

// MarkFailed moves a pending transaction to failed with a reason
func (t *Transaction) MarkFailed(reason string) error {
	return t.transition(StatusFailed, &reason)
}

func (t *Transaction) transition(next Status, reason *string) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidTransition{TransactionID: t.ID, From: t.Status, To: next}
	}
	t.Status = next
	t.FailureReason = reason
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Reason returns the failure reason or an empty string
func (t *Transaction) Reason() string {
	if t.FailureReason == nil {
		return ""
	}
	return *t.FailureReason
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s[%s/%s key=%s status=%s]", t.ID, t.TenantID, t.Environment, t.IdempotencyKey, t.Status)
}
