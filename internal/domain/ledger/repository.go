package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the append-only entry store. It deliberately has no update
// or delete operations.
type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]Entry, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrInvariantViolation reports a transaction whose entries do not balance
type ErrInvariantViolation struct {
	TransactionID uuid.UUID
	Reason        string
}

func (e ErrInvariantViolation) Error() string {
	return "double-entry invariant violated: " + e.Reason
}

// Is implements the errors.Is interface for ErrInvariantViolation
func (e ErrInvariantViolation) Is(target error) bool {
	t, ok := target.(ErrInvariantViolation)
	if !ok {
		return false
	}
	// A zero TransactionID matches any violation
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateEntry indicates an entry id collision
type ErrDuplicateEntry struct {
	EntryID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.EntryID.String()
}

func (e ErrDuplicateEntry) Is(target error) bool {
	_, ok := target.(ErrDuplicateEntry)
	return ok
}
