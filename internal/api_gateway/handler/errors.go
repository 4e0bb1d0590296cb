package handler

import (
	"errors"
	"net/http"

	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
)

// apiError is an engine error translated for HTTP
type apiError struct {
	Status  int
	Code    string
	Message string
}

// mapDomainError translates engine errors. ok is false for errors that are
// not part of the engine's vocabulary.
func mapDomainError(err error) (apiError, bool) {
	var validation shared.ErrValidation
	var conflict transaction.ErrIdempotencyConflict
	var invalidType account.ErrInvalidAccountType
	var violation ledger.ErrInvariantViolation
	var notFound account.ErrAccountNotFound

	switch {
	case errors.As(err, &validation):
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", validation.Error()}, true
	case errors.As(err, &conflict):
		return apiError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", conflict.Error()}, true
	case errors.As(err, &invalidType):
		return apiError{http.StatusUnprocessableEntity, "INVALID_ACCOUNT_TYPE", invalidType.Error()}, true
	case errors.As(err, &violation):
		return apiError{http.StatusUnprocessableEntity, "INVARIANT_VIOLATION", violation.Error()}, true
	case errors.As(err, &notFound):
		return apiError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", notFound.Error()}, true
	case errors.Is(err, transaction.ErrTransactionNotFound{}), errors.Is(err, activity.ErrRecordNotFound{}):
		return apiError{http.StatusNotFound, "NOT_FOUND", "Transaction not found"}, true
	case errors.Is(err, shared.ErrPostingFailure{}):
		return apiError{http.StatusInternalServerError, "POSTING_FAILURE", err.Error()}, true
	}
	return apiError{}, false
}
