package handler

import (
	"time"

	"github.com/ledger-posting-engine/internal/domain/shared"
)

// PostTransactionRequest is the body of a posting request. Accounts are
// named by the tenant's external ids.
type PostTransactionRequest struct {
	TenantID                  string `json:"tenant_id" binding:"required,max=128"`
	Environment               string `json:"environment" binding:"required,ledger_env"`
	SourceAccountID           string `json:"source_account_id" binding:"required,max=255"`
	DestinationAccountID      string `json:"destination_account_id" binding:"required,max=255"`
	Amount                    int64  `json:"amount" binding:"required,gt=0"`
	Currency                  string `json:"currency" binding:"required,len=3,uppercase"`
	IdempotencyKey            string `json:"idempotency_key" binding:"required,max=255"`
	ExternalTransactionID     string `json:"external_transaction_id,omitempty" binding:"max=255"`
	Deposit                   bool   `json:"deposit,omitempty"`
	SourceClassification      string `json:"source_classification,omitempty"`
	DestinationClassification string `json:"destination_classification,omitempty"`
}

// toPostingRequest maps the body onto the engine request
func (r PostTransactionRequest) toPostingRequest(correlationID string) *shared.PostingRequest {
	return &shared.PostingRequest{
		TenantID:                  r.TenantID,
		Environment:               shared.Environment(r.Environment),
		SourceAccountID:           r.SourceAccountID,
		DestinationAccountID:      r.DestinationAccountID,
		Amount:                    r.Amount,
		Currency:                  r.Currency,
		ExternalTransactionID:     r.ExternalTransactionID,
		IdempotencyKey:            r.IdempotencyKey,
		CorrelationID:             correlationID,
		Deposit:                   r.Deposit,
		SourceClassification:      r.SourceClassification,
		DestinationClassification: r.DestinationClassification,
		RequestedAt:               time.Now().UTC(),
	}
}

// PostingResponse is the outcome of a synchronous posting
type PostingResponse struct {
	LedgerTransactionID string `json:"ledger_transaction_id"`
	Status              string `json:"status"`
	Operation           string `json:"operation,omitempty"`
	Replayed            bool   `json:"replayed"`
	FailureReason       string `json:"failure_reason,omitempty"`
}

// SubmissionResponse acknowledges a queued posting request
type SubmissionResponse struct {
	IdempotencyKey      string `json:"idempotency_key"`
	Status              string `json:"status"`
	LedgerTransactionID string `json:"ledger_transaction_id,omitempty"`
}

// TransactionResponse is a registry row, with its posted detail once projected
type TransactionResponse struct {
	LedgerTransactionID   string          `json:"ledger_transaction_id"`
	TenantID              string          `json:"tenant_id"`
	Environment           string          `json:"environment"`
	IdempotencyKey        string          `json:"idempotency_key"`
	ExternalTransactionID string          `json:"external_transaction_id,omitempty"`
	CorrelationID         string          `json:"correlation_id,omitempty"`
	Status                string          `json:"status"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	CreatedAt             string          `json:"created_at"`
	UpdatedAt             string          `json:"updated_at"`
	Posted                *PostedResponse `json:"posted,omitempty"`
}

// PostedResponse is a posted transaction from the activity projection
type PostedResponse struct {
	LedgerTransactionID string        `json:"ledger_transaction_id"`
	Operation           string        `json:"operation"`
	Amount              int64         `json:"amount"`
	Currency            string        `json:"currency"`
	FormattedAmount     string        `json:"formatted_amount"`
	Legs                []LegResponse `json:"legs"`
	PostedAt            string        `json:"posted_at"`
}

// LegResponse is one side of a posted transaction
type LegResponse struct {
	AccountID         string `json:"account_id"`
	ExternalAccountID string `json:"external_account_id"`
	Classification    string `json:"classification"`
	Direction         string `json:"direction"`
	Amount            int64  `json:"amount"`
}

// BalanceQueryParams is the query string of a balance read
type BalanceQueryParams struct {
	Currency string `form:"currency" binding:"required,len=3,uppercase"`
}

// BalanceResponse is the balance of one ledger account
type BalanceResponse struct {
	AccountID         string `json:"account_id"`
	ExternalAccountID string `json:"external_account_id"`
	Classification    string `json:"classification"`
	Currency          string `json:"currency"`
	RawBalance        int64  `json:"raw_balance"`
	Balance           int64  `json:"balance"`
	Formatted         string `json:"formatted"`
	UpdatedAt         string `json:"updated_at"`
}

// TenantScopeParams binds the tenant and environment path segments
type TenantScopeParams struct {
	TenantID    string `uri:"tenant_id" binding:"required"`
	Environment string `uri:"environment" binding:"required,ledger_env"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
