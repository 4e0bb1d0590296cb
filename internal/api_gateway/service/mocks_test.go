package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

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
	return m.Called(ctx, id).Error(0)
}

func (m *MockTransactionRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
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

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Upsert(ctx context.Context, record *activity.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockActivityRepo) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*activity.Record, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Record), args.Error(1)
}

func (m *MockActivityRepo) GetByAccount(ctx context.Context, filter activity.AccountFilter, limit, offset int) ([]*activity.Record, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Record), args.Error(1)
}

func (m *MockActivityRepo) CountByAccount(ctx context.Context, filter activity.AccountFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	return m.Called(ctx, key, value, headers).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, request *shared.PostingRequest) error {
	return m.Called(ctx, request).Error(0)
}
