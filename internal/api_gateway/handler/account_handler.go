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
	postingsvc "github.com/ledger-posting-engine/internal/posting/service"
)

// AccountHandler handles HTTP requests for account reads
type AccountHandler struct {
	balanceService  postingsvc.BalanceService
	activityService service.ActivityService
	logger          *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, balanceService postingsvc.BalanceService, activityService service.ActivityService) *AccountHandler {
	return &AccountHandler{
		balanceService:  balanceService,
		activityService: activityService,
		logger:          logger,
	}
}

// GetBalance returns the balance of the account an external id names
// within a tenant environment and currency
func (h *AccountHandler) GetBalance(c *gin.Context) {
	logger := middleware.RequestLogger(c, h.logger)

	var params BalanceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondError(c, invalidInput(bindingMessage(err)), nil)
		return
	}

	view, err := h.balanceService.GetAccountBalance(c.Request.Context(), shared.BalanceQuery{
		TenantID:          c.Param("tenant_id"),
		Environment:       shared.Environment(c.Param("environment")),
		ExternalAccountID: c.Param("external_account_id"),
		Currency:          params.Currency,
	})
	if err != nil {
		respondFailure(c, logger, err, nil, "Failed to get balance", "external_account_id", c.Param("external_account_id"))
		return
	}

	respondData(c, http.StatusOK, mapBalanceToResponse(view))
}

// GetActivity retrieves the paginated posted transactions of a ledger account
// within a tenant environment
func (h *AccountHandler) GetActivity(c *gin.Context) {
	logger := middleware.RequestLogger(c, h.logger)

	var scope TenantScopeParams
	if err := c.ShouldBindUri(&scope); err != nil {
		respondError(c, invalidInput(bindingMessage(err)), nil)
		return
	}

	accountIDParam := c.Param("id")
	accountID, err := uuid.Parse(accountIDParam)
	if err != nil {
		respondError(c, invalidInput("Invalid account ID"), nil)
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		respondError(c, invalidInput("Invalid pagination parameters"), nil)
		return
	}

	records, total, err := h.activityService.GetAccountActivity(c.Request.Context(), activity.AccountFilter{
		TenantID:    scope.TenantID,
		Environment: shared.Environment(scope.Environment),
		AccountID:   accountID,
	}, pagination.Page, pagination.PerPage)
	if err != nil {
		respondFailure(c, logger, err, nil, "Failed to get account activity", "account_id", accountIDParam)
		return
	}

	posted := make([]PostedResponse, 0, len(records))
	for _, record := range records {
		posted = append(posted, mapRecordToResponse(record))
	}

	respondPage(c, posted, pagination.Page, pagination.PerPage, int(total))
}

func mapBalanceToResponse(view *balance.View) BalanceResponse {
	return BalanceResponse{
		AccountID:         view.AccountID.String(),
		ExternalAccountID: view.ExternalAccountID,
		Classification:    string(view.Classification),
		Currency:          view.Currency,
		RawBalance:        view.RawBalance,
		Balance:           view.Balance,
		Formatted:         view.Formatted,
		UpdatedAt:         view.UpdatedAt.Format(time.RFC3339),
	}
}
