package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("RecoversFromPanicAndLogs", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

		router := gin.New()
		router.Use(CorrelationID(base))
		router.Use(Recovery(base))
		router.GET("/panic", func(c *gin.Context) {
			panic("balance row vanished")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		req.Header.Set(CorrelationIDHeader, "corr-panic")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "corr-panic", body["correlation_id"])
		errInfo, ok := body["error"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", errInfo["code"])

		assert.Contains(t, buf.String(), "Panic recovered")
		assert.Contains(t, buf.String(), "balance row vanished")
		assert.Contains(t, buf.String(), `"correlation_id":"corr-panic"`)
	})

	t.Run("PassesThroughWithoutPanic", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(discardLogger()))
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
