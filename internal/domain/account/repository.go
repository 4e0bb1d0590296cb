package account

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository is the account directory store
type Repository interface {
	// FindOrCreate returns the account for key, creating it with classification
	// when absent. The bool reports whether this call created the row.
	FindOrCreate(ctx context.Context, key Key, classification Classification) (*LedgerAccount, bool, error)

	// GetByKey returns ErrAccountNotFound when no account exists for key
	GetByKey(ctx context.Context, key Key) (*LedgerAccount, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	ExternalAccountID string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.ExternalAccountID
}

func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.ExternalAccountID == "" || t.ExternalAccountID == e.ExternalAccountID
}

// ErrInvalidAccountType is returned when an account would be created with an
// unrecognized classification
type ErrInvalidAccountType struct {
	Classification string
}

func (e ErrInvalidAccountType) Error() string {
	return "invalid account type: " + strconv.Quote(e.Classification)
}

func (e ErrInvalidAccountType) Is(target error) bool {
	_, ok := target.(ErrInvalidAccountType)
	return ok
}
