package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledger-posting-engine/internal/api_gateway"
	"github.com/ledger-posting-engine/internal/api_gateway/service"
	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/data/mongo"
	"github.com/ledger-posting-engine/internal/data/postgres"
	"github.com/ledger-posting-engine/internal/logger"
	"github.com/ledger-posting-engine/internal/platform/messaging/producers"
	"github.com/ledger-posting-engine/internal/platform/persistence"
	"github.com/ledger-posting-engine/internal/platform/shutdown"
	"github.com/ledger-posting-engine/internal/posting/components"
	postingsvc "github.com/ledger-posting-engine/internal/posting/service"
)

func main() {
	os.Exit(run())
}

// run serves the HTTP API until a signal arrives or the listener fails
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting API gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"config_source", cfg.Source,
	)

	var resources shutdown.Stack
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := resources.Close(closeCtx, log); err != nil {
			log.Error("API gateway stopped with errors", "error", err)
			return
		}
		log.Info("API gateway stopped")
	}()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		return 1
	}
	resources.PushFunc("postgres", postgresDB.Close)

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		return 1
	}
	resources.Push("mongodb", mongoDB.Close)

	requestProducer, err := producers.NewPostingRequestProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize posting-request producer", "error", err)
		return 1
	}
	resources.Push("posting-request producer", func(context.Context) error { return requestProducer.Close() })

	repos := components.Repositories{
		Accounts:     postgres.NewAccountRepository(log, postgresDB),
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Entries:      postgres.NewEntryRepository(log, postgresDB),
		Balances:     postgres.NewBalanceRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}

	postingService := components.CreatePostingService(postgresDB.Pool(), repos, log, cfg)
	if pooled, ok := postingService.(*postingsvc.WorkerPoolPostingService); ok {
		resources.Push("worker pool", func(context.Context) error { return pooled.Shutdown(cfg.Server.ShutdownTimeout) })
	}

	server, err := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Posting:    postingService,
		Balances:   components.CreateBalanceService(repos, log),
		Submission: service.NewSubmissionService(log, components.NewRequestValidator(components.ControlAccountsFromConfig(cfg), log), repos.Transactions, requestProducer),
		Activity:   service.NewActivityService(log, repos.Transactions, mongo.NewActivityRepository(log, mongoDB.Database())),
	})
	if err != nil {
		log.Error("Failed to initialize HTTP server", "error", err)
		return 1
	}
	// Requests stop before the pool and stores they use are released
	resources.Push("http server", server.Stop)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Listening for HTTP requests", "port", cfg.Server.Port)
		serveErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		return 0
	case err := <-serveErr:
		log.Error("HTTP server failed", "error", err)
		return 1
	}
}
