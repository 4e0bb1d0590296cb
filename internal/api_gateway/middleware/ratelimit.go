package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewIPLimiter builds an in-memory per-client limiter from a formatted rate
// such as "100-S" or "1000-M".
func NewIPLimiter(formattedRate string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formattedRate, err)
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit rejects clients that exceeded their quota with 429
func RateLimit(limiterInstance *limiter.Limiter, base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		limit, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			RequestLogger(c, base).Error("Failed to get rate limit context", "ip", ip, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "INTERNAL_SERVER_ERROR", "message": "An internal server error occurred"},
			})
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit.Remaining))

		if limit.Reached {
			RequestLogger(c, base).Warn("Rate limit exceeded", "ip", ip, "limit", limit.Limit)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"code": "RATE_LIMITED", "message": "Too many requests. Please try again later."},
			})
			return
		}

		c.Next()
	}
}
