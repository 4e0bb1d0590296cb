package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/stretchr/testify/mock"
)

// Mock implementations of the dependencies

type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) PostTransaction(ctx context.Context, request *shared.PostingRequest) (*Result, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

type MockRequestValidator struct {
	mock.Mock
}

func (m *MockRequestValidator) Validate(ctx context.Context, request *shared.PostingRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockIdempotencyGuard struct {
	mock.Mock
}

func (m *MockIdempotencyGuard) Claim(ctx context.Context, request *shared.PostingRequest) (*transaction.Transaction, bool, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*transaction.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyGuard) Complete(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

type MockAccountResolver struct {
	mock.Mock
}

func (m *MockAccountResolver) ResolvePair(ctx context.Context, tx pgx.Tx, request *shared.PostingRequest) (*account.LedgerAccount, *account.LedgerAccount, error) {
	args := m.Called(ctx, tx, request)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*account.LedgerAccount), args.Get(1).(*account.LedgerAccount), args.Error(2)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Post(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, request *shared.PostingRequest, source, destination *account.LedgerAccount) (*shared.TransactionPosted, error) {
	args := m.Called(ctx, tx, txn, request, source, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.TransactionPosted), args.Error(1)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, event *shared.TransactionPosted) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, txn *transaction.Transaction, failureReason string) error {
	args := m.Called(ctx, txn, failureReason)
	return args.Error(0)
}
