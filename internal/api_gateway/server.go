package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledger-posting-engine/internal/api_gateway/handler"
	"github.com/ledger-posting-engine/internal/api_gateway/middleware"
	"github.com/ledger-posting-engine/internal/api_gateway/service"
	"github.com/ledger-posting-engine/internal/config"
	postingsvc "github.com/ledger-posting-engine/internal/posting/service"
	"github.com/ulule/limiter/v3"
)

// Services are the backends the HTTP handlers call
type Services struct {
	Posting    postingsvc.PostingService
	Balances   postingsvc.BalanceService
	Submission service.SubmissionService
	Activity   service.ActivityService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	httpRouter      *gin.Engine
	shutdownTimeout time.Duration
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	var rateLimiter *limiter.Limiter
	if cfg.RateLimit.Enabled {
		var err error
		if rateLimiter, err = middleware.NewIPLimiter(cfg.RateLimit.Rate); err != nil {
			return nil, err
		}
	}

	httpRouter := gin.New()

	accountHandler := handler.NewAccountHandler(log, services.Balances, services.Activity)
	transactionHandler := handler.NewTransactionHandler(log, services.Posting, services.Submission, services.Activity)

	setupRouter(log, httpRouter, cfg.CORS, rateLimiter, accountHandler, transactionHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the
// configured shutdown timeout for in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx := ctx
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
