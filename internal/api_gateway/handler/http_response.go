package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledger-posting-engine/internal/api_gateway/middleware"
)

// Response is the envelope of every API answer. Failed postings carry both
// the error and the persisted failed transaction.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page of a listing
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

var errInternal = apiError{
	Status:  http.StatusInternalServerError,
	Code:    "INTERNAL_SERVER_ERROR",
	Message: "An internal server error occurred",
}

func invalidInput(message string) apiError {
	return apiError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message}
}

func pageMeta(page, perPage, totalItems int) *MetaInfo {
	return &MetaInfo{
		Page:       page,
		PerPage:    perPage,
		TotalPages: (totalItems + perPage - 1) / perPage,
		TotalItems: totalItems,
	}
}

func respond(c *gin.Context, status int, resp Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

func respondData(c *gin.Context, status int, data interface{}) {
	respond(c, status, Response{Data: data})
}

func respondPage(c *gin.Context, data interface{}, page, perPage, totalItems int) {
	respond(c, http.StatusOK, Response{Data: data, Meta: pageMeta(page, perPage, totalItems)})
}

func respondError(c *gin.Context, apiErr apiError, data interface{}) {
	respond(c, apiErr.Status, Response{
		Data:  data,
		Error: &ErrorInfo{Code: apiErr.Code, Message: apiErr.Message},
	})
}

// respondFailure answers with the mapped engine error, or logs err and
// answers 500 when it is outside the engine's vocabulary
func respondFailure(c *gin.Context, logger *slog.Logger, err error, data interface{}, logMsg string, args ...any) {
	apiErr, ok := mapDomainError(err)
	if !ok {
		logger.Error(logMsg, append(args, "error", err)...)
		respondError(c, errInternal, nil)
		return
	}
	respondError(c, apiErr, data)
}
