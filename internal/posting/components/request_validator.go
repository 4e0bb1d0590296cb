package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type RequestValidatorImpl struct {
	controls *account.ControlAccounts
	logger   *slog.Logger
}

func NewRequestValidator(controls *account.ControlAccounts, logger *slog.Logger) service.RequestValidator {
	return &RequestValidatorImpl{
		controls: controls,
		logger:   logger,
	}
}

// Validate checks posting request validity. It never touches storage.
func (v *RequestValidatorImpl) Validate(ctx context.Context, request *shared.PostingRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if err := validate(v.controls, request); err != nil {
		logger.Debug("Invalid posting request", "idempotency_key", request.IdempotencyKey, "error", err)
		return err
	}
	return nil
}

func validate(controls *account.ControlAccounts, request *shared.PostingRequest) error {
	switch {
	case request.TenantID == "":
		return shared.ErrValidation{Field: "tenant_id", Reason: "is required"}
	case !request.Environment.IsValid():
		return shared.ErrValidation{Field: "environment", Reason: fmt.Sprintf("%q is not recognized", request.Environment)}
	case request.IdempotencyKey == "":
		return shared.ErrValidation{Field: "idempotency_key", Reason: "is required"}
	case request.Amount <= 0:
		return shared.ErrValidation{Field: "amount", Reason: fmt.Sprintf("must be positive, got %d", request.Amount)}
	case !isCurrencyCode(request.Currency):
		return shared.ErrValidation{Field: "currency", Reason: "must be a 3-letter ISO code"}
	case request.SourceAccountID == "":
		return shared.ErrValidation{Field: "source_account_id", Reason: "is required"}
	case request.DestinationAccountID == "":
		return shared.ErrValidation{Field: "destination_account_id", Reason: "is required"}
	case request.SourceAccountID == request.DestinationAccountID && !request.Deposit:
		return shared.ErrValidation{Field: "destination_account_id", Reason: "must differ from the source unless the posting is a deposit"}
	case request.Deposit && request.SourceAccountID != request.DestinationAccountID && !controls.IsCashControl(request.SourceAccountID):
		return shared.ErrValidation{Field: "source_account_id", Reason: fmt.Sprintf("a deposit is funded from %s or names the destination on both sides", controls.CashControlID())}
	}
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
