package components

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepo is a mock implementation of transaction.Repository
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) CreatePending(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepo) GetByIdempotencyKey(ctx context.Context, tenantID string, env shared.Environment, idempotencyKey string) (*transaction.Transaction, error) {
	args := m.Called(ctx, tenantID, env, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) MarkPosted(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
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

// MockAccountRepo is a mock implementation of account.Repository
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) FindOrCreate(ctx context.Context, key account.Key, classification account.Classification) (*account.LedgerAccount, bool, error) {
	args := m.Called(ctx, key, classification)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*account.LedgerAccount), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepo) GetByKey(ctx context.Context, key account.Key) (*account.LedgerAccount, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.LedgerAccount), args.Error(1)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return m
}

// MockEntryRepo is a mock implementation of ledger.Repository
type MockEntryRepo struct {
	mock.Mock
}

func (m *MockEntryRepo) Record(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepo) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Entry), args.Error(1)
}

func (m *MockEntryRepo) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

// MockBalanceRepo is a mock implementation of balance.Repository
type MockBalanceRepo struct {
	mock.Mock
}

func (m *MockBalanceRepo) Apply(ctx context.Context, acc *account.LedgerAccount, direction ledger.Direction, amount int64) (int64, error) {
	args := m.Called(ctx, acc, direction, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceRepo) Get(ctx context.Context, accountID uuid.UUID) (*balance.Balance, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*balance.Balance), args.Error(1)
}

func (m *MockBalanceRepo) WithTx(tx pgx.Tx) balance.Repository {
	return m
}

// MockOutboxRepo is a mock implementation of outbox.Repository
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) Pending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) SaveAttempt(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

func testAccount(externalID string, classification account.Classification) *account.LedgerAccount {
	return &account.LedgerAccount{
		ID:                uuid.New(),
		TenantID:          "tenant-1",
		Environment:       shared.EnvironmentSandbox,
		ExternalAccountID: externalID,
		Currency:          "USD",
		Classification:    classification,
		CreatedAt:         time.Now().UTC(),
	}
}
