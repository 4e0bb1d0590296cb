package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side of the ledger an entry is posted to
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// IsValid reports whether d is debit or credit
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// Opposite returns the other side of the ledger
func (d Direction) Opposite() Direction {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

// SignedAmount returns the raw balance delta of posting amount on this side:
// debits add, credits subtract.
func (d Direction) SignedAmount(amount int64) int64 {
	if d == DirectionDebit {
		return amount
	}
	return -amount
}

// Entry is a single immutable debit or credit line of a ledger transaction
type Entry struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	Direction     Direction `json:"direction"`
	Amount        int64     `json:"amount"` // Stored in cents/minor units
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}
