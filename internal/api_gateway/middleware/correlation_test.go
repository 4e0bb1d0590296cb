package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(base *slog.Logger, captured *string) *gin.Engine {
		router := gin.New()
		router.Use(CorrelationID(base))
		router.GET("/test", func(c *gin.Context) {
			*captured = GetCorrelationID(c)
			RequestLogger(c, nil).Info("inside handler")
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("GeneratesCorrelationIDIfNotProvided", func(t *testing.T) {
		var captured string
		router := newRouter(discardLogger(), &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		headerID := rr.Header().Get(CorrelationIDHeader)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err)
		assert.Equal(t, headerID, captured)
	})

	t.Run("UsesCorrelationIDIfProvided", func(t *testing.T) {
		var captured string
		router := newRouter(discardLogger(), &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, "corr-abc-123")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, "corr-abc-123", rr.Header().Get(CorrelationIDHeader))
		assert.Equal(t, "corr-abc-123", captured)
	})

	t.Run("ReplacesMalformedCorrelationID", func(t *testing.T) {
		for name, bad := range map[string]string{
			"whitespace": "has space",
			"too long":   strings.Repeat("a", maxCorrelationIDLength+1),
		} {
			t.Run(name, func(t *testing.T) {
				var captured string
				router := newRouter(discardLogger(), &captured)

				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				req.Header.Set(CorrelationIDHeader, bad)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)

				assert.NotEqual(t, bad, captured)
				_, err := uuid.Parse(captured)
				assert.NoError(t, err)
			})
		}
	})

	t.Run("RequestLoggerCarriesCorrelationID", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, nil))
		var captured string
		router := newRouter(base, &captured)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, "corr-log-1")
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, buf.String(), `"correlation_id":"corr-log-1"`)
		assert.Contains(t, buf.String(), "inside handler")
	})
}

func TestGetCorrelationID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, GetCorrelationID(c))
}
