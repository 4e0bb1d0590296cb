package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/data/postgres"
	"github.com/ledger-posting-engine/internal/logger"
	"github.com/ledger-posting-engine/internal/platform/persistence"
	"github.com/ledger-posting-engine/internal/reconciler"
)

// Exit codes: 0 clean, 1 error, 2 drift or stale pending found, 3 another
// runner holds the lock.
const (
	exitClean    = 0
	exitError    = 1
	exitFindings = 2
	exitLocked   = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("reconciler")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitError
	}

	log := logger.NewLogger(cfg)
	log.Info("Configuration loaded", "source", cfg.Source, "env", cfg.Application.Env)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		return exitError
	}
	defer postgresDB.Close()

	redisDB, err := persistence.NewRedisDB(ctx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		return exitError
	}
	defer redisDB.Close()

	r := reconciler.New(
		&cfg.Reconciler,
		postgres.NewReconciliationRepository(log, postgresDB),
		postgres.NewTransactionRepository(log, postgresDB),
		redisDB,
		log,
	)

	report, err := r.Run(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrLockNotObtained) {
			log.Warn("Another reconciler run holds the lock")
			return exitLocked
		}
		log.Error("Reconciliation failed", "error", err)
		return exitError
	}

	// The report goes to stdout for the scheduler; logs stay structured
	if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
		log.Error("Failed to write report", "error", err)
		return exitError
	}

	if !report.Clean() {
		return exitFindings
	}
	return exitClean
}
