package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrValidation is returned for requests rejected before anything is written
type ErrValidation struct {
	Field  string
	Reason string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// Is matches any ErrValidation, or one with the same field when Field is set
func (e ErrValidation) Is(target error) bool {
	t, ok := target.(ErrValidation)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// ErrPostingFailure covers storage or transport errors raised inside the
// atomic unit. The transaction it names has been marked failed.
type ErrPostingFailure struct {
	TransactionID uuid.UUID
	Reason        string
	Err           error
}

func (e ErrPostingFailure) Error() string {
	return "posting failure: " + e.Reason
}

func (e ErrPostingFailure) Unwrap() error {
	return e.Err
}

func (e ErrPostingFailure) Is(target error) bool {
	t, ok := target.(ErrPostingFailure)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}
