package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ledger-posting-engine/internal/api_gateway/handler"
	"github.com/ledger-posting-engine/internal/api_gateway/middleware"
	"github.com/ledger-posting-engine/internal/config"
	"github.com/ulule/limiter/v3"
)

// setupRouter configures API routes and middleware for the application.
// rateLimiter may be nil to disable rate limiting.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	corsCfg config.CORSConfig,
	rateLimiter *limiter.Limiter,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
) {
	// Correlation runs first so the recovery and access logs carry the id
	r.Use(middleware.CorrelationID(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(cors.New(corsConfig(corsCfg)))

	v1 := r.Group("/api/v1")
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(rateLimiter, logger))
	}
	{
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Post)
			transactions.POST("/async", transactionHandler.Submit)
		}

		scoped := v1.Group("/tenants/:tenant_id/environments/:environment")
		{
			scoped.GET("/transactions/:id", transactionHandler.GetByID)
			scoped.GET("/accounts/:external_account_id/balance", accountHandler.GetBalance)
			scoped.GET("/ledger-accounts/:id/activity", accountHandler.GetActivity)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	c.AddAllowHeaders(middleware.CorrelationIDHeader)
	c.AddExposeHeaders(middleware.CorrelationIDHeader)
	return c
}
