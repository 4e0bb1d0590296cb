package components

import (
	"log/slog"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/persistence"
	"github.com/ledger-posting-engine/internal/posting/service"
)

// Repositories groups the stores the posting engine writes to
type Repositories struct {
	Accounts     account.Repository
	Transactions transaction.Repository
	Entries      ledger.Repository
	Balances     balance.Repository
	Outbox       outbox.Repository
}

// ControlAccountsFromConfig builds the control-account registry of the deployment
func ControlAccountsFromConfig(cfg *config.Config) *account.ControlAccounts {
	return account.NewControlAccounts(cfg.Ledger.ControlAccountPrefix, cfg.Ledger.CashControlAccountID)
}

// CreatePostingService creates a new PostingService with all its dependencies.
func CreatePostingService(
	db persistence.TxBeginner,
	repos Repositories,
	logger *slog.Logger,
	cfg *config.Config,
) service.PostingService {
	controls := ControlAccountsFromConfig(cfg)

	customerClassification, err := account.ParseClassification(cfg.Ledger.CustomerClassification)
	if err != nil {
		logger.Warn("Invalid customer classification, using liability",
			"classification", cfg.Ledger.CustomerClassification,
			"error", err,
		)
		customerClassification = account.ClassificationLiability
	}

	baseService := service.NewPostingService(
		db,
		NewRequestValidator(controls, logger),
		NewIdempotencyGuard(repos.Transactions, logger),
		NewAccountResolver(repos.Accounts, controls, customerClassification, logger),
		NewJournal(repos.Entries, repos.Balances, controls, logger),
		NewOutboxManager(repos.Outbox, logger),
		NewFailureRecorder(repos.Transactions, logger),
		cfg.Ledger.PostingTimeout,
		logger,
	)

	if cfg.WorkerPool.Size <= 0 {
		logger.Info("Worker pool disabled, posting inline")
		return baseService
	}

	workerPoolService, err := service.NewWorkerPoolPostingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool posting service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// CreateBalanceService creates the read-only balance query service
func CreateBalanceService(repos Repositories, logger *slog.Logger) service.BalanceService {
	return service.NewBalanceService(repos.Accounts, repos.Balances, logger)
}
