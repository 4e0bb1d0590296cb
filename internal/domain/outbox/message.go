package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Message stores a posted-transaction event until it has been delivered to
// the activity projection and the posted-events topic
type Message struct {
	ID            int64
	TransactionID uuid.UUID
	TenantID      string
	Payload       json.RawMessage
	Status        shared.OutboxStatus
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	LastAttemptAt *time.Time
}

func NewMessage(event *shared.TransactionPosted) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.LedgerTransactionID,
		TenantID:      event.TenantID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Fail counts a failed delivery. Once attempts reach maxAttempts the message
// leaves the pending set and Fail reports true. A maxAttempts of zero or
// less retries forever.
func (m *Message) Fail(cause error, maxAttempts int, at time.Time) bool {
	m.Attempts++
	m.LastError = cause.Error()
	m.LastAttemptAt = &at
	if maxAttempts > 0 && m.Attempts >= maxAttempts {
		m.Status = shared.OutboxStatusFailedToPublish
		return true
	}
	return false
}

// Abandon takes a message that can never be delivered out of the pending set
// without counting an attempt
func (m *Message) Abandon(cause error, at time.Time) {
	m.Status = shared.OutboxStatusFailedToPublish
	m.LastError = cause.Error()
	m.LastAttemptAt = &at
}

// Event decodes the posted-transaction event carried by the message
func (m *Message) Event() (*shared.TransactionPosted, error) {
	var event shared.TransactionPosted
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
