package outbox_poller

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

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

// MockActivityRepo is a mock implementation of activity.Repository
type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Upsert(ctx context.Context, record *activity.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
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

// MockPublisher is a mock implementation of producers.MessagePublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	args := m.Called(ctx, key, value, headers)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventDispatcher is a mock implementation of EventDispatcher
type MockEventDispatcher struct {
	mock.Mock
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
