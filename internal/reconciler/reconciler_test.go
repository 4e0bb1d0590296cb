package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/domain/reconciliation"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReconciliationRepo struct {
	mock.Mock
}

func (m *MockReconciliationRepo) FindBalanceDrift(ctx context.Context, scope reconciliation.Scope) ([]reconciliation.Drift, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Drift), args.Error(1)
}

type MockTransactionRepo struct {
	mock.Mock
	transaction.Repository
}

func (m *MockTransactionRepo) ListStalePending(ctx context.Context, tenantID string, env shared.Environment, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, tenantID, env, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

// pendingStore answers ListStalePending from memory the way the SQL does:
// filter by scope, then take the oldest limit rows.
type pendingStore struct {
	transaction.Repository
	rows []*transaction.Transaction
}

func (s *pendingStore) ListStalePending(_ context.Context, tenantID string, env shared.Environment, olderThan time.Time, limit int) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, txn := range s.rows {
		if tenantID != "" && txn.TenantID != tenantID {
			continue
		}
		if env != "" && txn.Environment != env {
			continue
		}
		if !txn.CreatedAt.Before(olderThan) || len(out) == limit {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

type fakeLocker struct {
	err      error
	key      string
	released bool
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (persistence.ReleaseFunc, error) {
	l.key = key
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.released = true
		return nil
	}, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestReconciler(cfg *config.ReconcilerConfig, recRepo *MockReconciliationRepo, txRepo *MockTransactionRepo, locker Locker) *Reconciler {
	r := New(cfg, recRepo, txRepo, locker, slog.Default())
	r.now = func() time.Time { return fixedNow }
	return r
}

func staleTransaction(tenant string) *transaction.Transaction {
	return &transaction.Transaction{
		ID:             uuid.New(),
		TenantID:       tenant,
		Environment:    shared.EnvironmentSandbox,
		IdempotencyKey: "idem-" + tenant,
		Status:         transaction.StatusPending,
		CreatedAt:      fixedNow.Add(-time.Hour),
	}
}

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("reports drift and stale pending rows in scope", func(t *testing.T) {
		cfg := &config.ReconcilerConfig{TenantID: "tenant-1", Environment: "sandbox", StalePendingAfter: 30 * time.Minute, StalePendingLimit: 50}
		recRepo := new(MockReconciliationRepo)
		txRepo := new(MockTransactionRepo)
		locker := &fakeLocker{}
		scope := reconciliation.Scope{TenantID: "tenant-1", Environment: shared.EnvironmentSandbox}

		drift := []reconciliation.Drift{{AccountID: uuid.New(), TenantID: "tenant-1", ExternalAccountID: "CUST_1", StoredRawBalance: -5000, EntryRawBalance: -6000}}
		recRepo.On("FindBalanceDrift", ctx, scope).Return(drift, nil).Once()
		txRepo.On("ListStalePending", ctx, "tenant-1", shared.EnvironmentSandbox, fixedNow.Add(-30*time.Minute), 50).
			Return([]*transaction.Transaction{staleTransaction("tenant-1")}, nil).Once()

		report, err := newTestReconciler(cfg, recRepo, txRepo, locker).Run(ctx)

		require.NoError(t, err)
		assert.False(t, report.Clean())
		require.Len(t, report.Drift, 1)
		assert.Equal(t, int64(1000), report.Drift[0].Difference())
		require.Len(t, report.StalePending, 1)
		assert.Equal(t, "tenant-1", report.StalePending[0].TenantID)
		assert.Equal(t, "reconciler:tenant-1:sandbox", locker.key)
		assert.True(t, locker.released)
		recRepo.AssertExpectations(t)
		txRepo.AssertExpectations(t)
	})

	t.Run("clean ledger with defaults", func(t *testing.T) {
		recRepo := new(MockReconciliationRepo)
		txRepo := new(MockTransactionRepo)
		recRepo.On("FindBalanceDrift", ctx, reconciliation.Scope{}).Return([]reconciliation.Drift{}, nil).Once()
		txRepo.On("ListStalePending", ctx, "", shared.Environment(""), fixedNow.Add(-defaultStalePendingAfter), defaultStalePendingLimit).
			Return([]*transaction.Transaction{}, nil).Once()

		report, err := newTestReconciler(&config.ReconcilerConfig{}, recRepo, txRepo, nil).Run(ctx)

		require.NoError(t, err)
		assert.True(t, report.Clean())
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		recRepo := new(MockReconciliationRepo)
		txRepo := new(MockTransactionRepo)
		locker := &fakeLocker{err: persistence.ErrLockNotObtained}

		report, err := newTestReconciler(&config.ReconcilerConfig{}, recRepo, txRepo, locker).Run(ctx)

		assert.Nil(t, report)
		assert.ErrorIs(t, err, persistence.ErrLockNotObtained)
		assert.Equal(t, "reconciler:*:*", locker.key)
		recRepo.AssertNotCalled(t, "FindBalanceDrift", mock.Anything, mock.Anything)
	})

	t.Run("drift query error releases lock", func(t *testing.T) {
		recRepo := new(MockReconciliationRepo)
		txRepo := new(MockTransactionRepo)
		locker := &fakeLocker{}
		recRepo.On("FindBalanceDrift", ctx, reconciliation.Scope{}).Return(nil, errors.New("statement timeout")).Once()

		report, err := newTestReconciler(&config.ReconcilerConfig{}, recRepo, txRepo, locker).Run(ctx)

		assert.Nil(t, report)
		assert.ErrorContains(t, err, "failed to compute balance drift")
		assert.True(t, locker.released)
	})

	t.Run("stale query error", func(t *testing.T) {
		recRepo := new(MockReconciliationRepo)
		txRepo := new(MockTransactionRepo)
		recRepo.On("FindBalanceDrift", ctx, reconciliation.Scope{}).Return([]reconciliation.Drift{}, nil).Once()
		txRepo.On("ListStalePending", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("statement timeout")).Once()

		_, err := newTestReconciler(&config.ReconcilerConfig{}, recRepo, txRepo, &fakeLocker{}).Run(ctx)

		assert.ErrorContains(t, err, "failed to list stale pending transactions")
	})
}

func TestReconciler_Run_ScopedLimit(t *testing.T) {
	ctx := context.Background()
	cfg := &config.ReconcilerConfig{TenantID: "tenant-1", Environment: "sandbox", StalePendingLimit: 2}
	recRepo := new(MockReconciliationRepo)
	recRepo.On("FindBalanceDrift", ctx, reconciliation.Scope{TenantID: "tenant-1", Environment: shared.EnvironmentSandbox}).
		Return([]reconciliation.Drift{}, nil).Once()

	other1, other2, mine := staleTransaction("tenant-other"), staleTransaction("tenant-other"), staleTransaction("tenant-1")
	other1.CreatedAt = fixedNow.Add(-3 * time.Hour)
	other2.CreatedAt = fixedNow.Add(-2 * time.Hour)
	store := &pendingStore{rows: []*transaction.Transaction{other1, other2, mine}}

	r := New(cfg, recRepo, store, &fakeLocker{}, slog.Default())
	r.now = func() time.Time { return fixedNow }
	report, err := r.Run(ctx)

	require.NoError(t, err)
	assert.False(t, report.Clean())
	require.Len(t, report.StalePending, 1)
	assert.Equal(t, mine.ID, report.StalePending[0].ID)
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "reconciler:*:*", LockKey(reconciliation.Scope{}))
	assert.Equal(t, "reconciler:t1:*", LockKey(reconciliation.Scope{TenantID: "t1"}))
	assert.Equal(t, "reconciler:*:production", LockKey(reconciliation.Scope{Environment: shared.EnvironmentProduction}))
}
