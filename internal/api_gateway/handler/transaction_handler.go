package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/api_gateway/middleware"
	"github.com/ledger-posting-engine/internal/api_gateway/service"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	postingsvc "github.com/ledger-posting-engine/internal/posting/service"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	postingService    postingsvc.PostingService
	submissionService service.SubmissionService
	activityService   service.ActivityService
	logger            *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	logger *slog.Logger,
	postingService postingsvc.PostingService,
	submissionService service.SubmissionService,
	activityService service.ActivityService,
) *TransactionHandler {
	return &TransactionHandler{
		postingService:    postingService,
		submissionService: submissionService,
		activityService:   activityService,
		logger:            logger,
	}
}

// Post runs a posting synchronously. A new posting answers 201, an
// idempotent replay answers 200 with the original transaction id.
func (h *TransactionHandler) Post(c *gin.Context) {
	logger := middleware.RequestLogger(c, h.logger)

	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		respondError(c, invalidInput(bindingMessage(err)), nil)
		return
	}

	result, err := h.postingService.PostTransaction(c.Request.Context(), req.toPostingRequest(middleware.GetCorrelationID(c)))
	if err != nil {
		var data interface{}
		if result != nil {
			data = mapResultToResponse(result)
		}
		respondFailure(c, logger, err, data, "Unexpected posting error")
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	respondData(c, status, mapResultToResponse(result))
}

// Submit queues a posting request for the transaction processor and
// answers 202. A key that is already registered answers 200 with its row.
func (h *TransactionHandler) Submit(c *gin.Context) {
	logger := middleware.RequestLogger(c, h.logger)

	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		respondError(c, invalidInput(bindingMessage(err)), nil)
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), req.toPostingRequest(middleware.GetCorrelationID(c)))
	if err != nil {
		respondFailure(c, logger, err, nil, "Failed to submit posting request")
		return
	}

	if submission.Existing != nil {
		respondData(c, http.StatusOK, SubmissionResponse{
			IdempotencyKey:      submission.IdempotencyKey,
			Status:              string(submission.Existing.Status),
			LedgerTransactionID: submission.Existing.ID.String(),
		})
		return
	}

	respondData(c, http.StatusAccepted, SubmissionResponse{
		IdempotencyKey: submission.IdempotencyKey,
		Status:         "accepted",
	})
}

// GetByID returns the registry row of a transaction within a tenant
// environment, returns 404 if not found there
func (h *TransactionHandler) GetByID(c *gin.Context) {
	logger := middleware.RequestLogger(c, h.logger)

	var scope TenantScopeParams
	if err := c.ShouldBindUri(&scope); err != nil {
		respondError(c, invalidInput(bindingMessage(err)), nil)
		return
	}

	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		respondError(c, invalidInput("Invalid transaction ID"), nil)
		return
	}

	view, err := h.activityService.GetTransaction(c.Request.Context(), scope.TenantID, shared.Environment(scope.Environment), id)
	if err != nil {
		respondFailure(c, logger, err, nil, "Failed to get transaction", "id", idParam)
		return
	}

	respondData(c, http.StatusOK, mapViewToResponse(view))
}

func mapResultToResponse(result *postingsvc.Result) PostingResponse {
	return PostingResponse{
		LedgerTransactionID: result.TransactionID.String(),
		Status:              string(result.Status),
		Operation:           string(result.Operation),
		Replayed:            result.Replayed,
		FailureReason:       result.FailureReason,
	}
}

func mapViewToResponse(view *service.TransactionView) TransactionResponse {
	txn := view.Transaction
	response := TransactionResponse{
		LedgerTransactionID:   txn.ID.String(),
		TenantID:              txn.TenantID,
		Environment:           txn.Environment.String(),
		IdempotencyKey:        txn.IdempotencyKey,
		ExternalTransactionID: txn.ExternalTransactionID,
		CorrelationID:         txn.CorrelationID,
		Status:                string(txn.Status),
		FailureReason:         failureReason(txn),
		CreatedAt:             txn.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             txn.UpdatedAt.Format(time.RFC3339),
	}
	if view.Posted != nil {
		posted := mapRecordToResponse(view.Posted)
		response.Posted = &posted
	}
	return response
}

func failureReason(txn *transaction.Transaction) string {
	if txn.FailureReason == nil {
		return ""
	}
	return *txn.FailureReason
}

func mapRecordToResponse(record *activity.Record) PostedResponse {
	legs := make([]LegResponse, 0, len(record.Legs))
	for _, leg := range record.Legs {
		legs = append(legs, LegResponse{
			AccountID:         leg.AccountID.String(),
			ExternalAccountID: leg.ExternalAccountID,
			Classification:    leg.Classification,
			Direction:         leg.Direction,
			Amount:            leg.Amount,
		})
	}
	return PostedResponse{
		LedgerTransactionID: record.LedgerTransactionID.String(),
		Operation:           string(record.Operation),
		Amount:              record.Amount,
		Currency:            record.Currency,
		FormattedAmount:     balance.FormatMinorUnits(record.Amount, record.Currency),
		Legs:                legs,
		PostedAt:            record.PostedAt.Format(time.RFC3339),
	}
}
