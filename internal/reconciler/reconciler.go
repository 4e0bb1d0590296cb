// Package reconciler checks ledger data offline. It recomputes every account
// balance from its entries and lists postings stuck in pending. It never
// writes to the ledger tables.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/domain/reconciliation"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

const (
	defaultStalePendingAfter = 15 * time.Minute
	defaultStalePendingLimit = 500
	defaultLockTTL           = 10 * time.Minute
)

// Locker grants a single runner per scope across processes
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (persistence.ReleaseFunc, error)
}

// Report is the outcome of one run
type Report struct {
	Scope        reconciliation.Scope       `json:"scope"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   time.Time                  `json:"finished_at"`
	Drift        []reconciliation.Drift     `json:"drift"`
	StalePending []*transaction.Transaction `json:"stale_pending"`
}

// Clean reports whether the run found nothing to act on
func (r *Report) Clean() bool {
	return len(r.Drift) == 0 && len(r.StalePending) == 0
}

type Reconciler struct {
	reconciliationRepo reconciliation.Repository
	transactionRepo    transaction.Repository
	locker             Locker
	scope              reconciliation.Scope
	staleAfter         time.Duration
	staleLimit         int
	lockTTL            time.Duration
	now                func() time.Time
	logger             *slog.Logger
}

func New(
	cfg *config.ReconcilerConfig,
	reconciliationRepo reconciliation.Repository,
	transactionRepo transaction.Repository,
	locker Locker,
	logger *slog.Logger,
) *Reconciler {
	r := &Reconciler{
		reconciliationRepo: reconciliationRepo,
		transactionRepo:    transactionRepo,
		locker:             locker,
		scope: reconciliation.Scope{
			TenantID:    cfg.TenantID,
			Environment: shared.Environment(cfg.Environment),
		},
		staleAfter: cfg.StalePendingAfter,
		staleLimit: cfg.StalePendingLimit,
		lockTTL:    cfg.LockTTL,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
	if r.staleAfter <= 0 {
		r.staleAfter = defaultStalePendingAfter
	}
	if r.staleLimit <= 0 {
		r.staleLimit = defaultStalePendingLimit
	}
	if r.lockTTL <= 0 {
		r.lockTTL = defaultLockTTL
	}
	return r
}

// LockKey names the lock held while reconciling scope
func LockKey(scope reconciliation.Scope) string {
	tenant, env := scope.TenantID, string(scope.Environment)
	if tenant == "" {
		tenant = "*"
	}
	if env == "" {
		env = "*"
	}
	return fmt.Sprintf("reconciler:%s:%s", tenant, env)
}

// Run performs one reconciliation pass. It fails with
// persistence.ErrLockNotObtained when another runner holds the scope.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	logger := r.logger.With("tenant_id", r.scope.TenantID, "environment", string(r.scope.Environment))

	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, LockKey(r.scope), r.lockTTL)
		if err != nil {
			if errors.Is(err, persistence.ErrLockNotObtained) {
				logger.Warn("Another reconciler run holds the lock")
			}
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Failed to release reconciler lock", "error", err)
			}
		}()
	} else {
		logger.Warn("Running without a lock, concurrent runs are not prevented")
	}

	report := &Report{Scope: r.scope, StartedAt: r.now()}

	drift, err := r.reconciliationRepo.FindBalanceDrift(ctx, r.scope)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance drift: %w", err)
	}
	report.Drift = drift

	stale, err := r.transactionRepo.ListStalePending(ctx, r.scope.TenantID, r.scope.Environment,
		report.StartedAt.Add(-r.staleAfter), r.staleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}
	report.StalePending = stale
	report.FinishedAt = r.now()

	for _, d := range report.Drift {
		logger.Warn("Balance drift detected",
			"account_id", d.AccountID.String(),
			"external_account_id", d.ExternalAccountID,
			"currency", d.Currency,
			"stored_raw_balance", d.StoredRawBalance,
			"entry_raw_balance", d.EntryRawBalance,
			"difference", d.Difference(),
		)
	}
	for _, txn := range report.StalePending {
		logger.Warn("Stale pending transaction",
			"transaction_id", txn.ID.String(),
			"idempotency_key", txn.IdempotencyKey,
			"created_at", txn.CreatedAt,
		)
	}

	logger.Info("Reconciliation finished",
		"drifted_accounts", len(report.Drift),
		"stale_pending", len(report.StalePending),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, nil
}

