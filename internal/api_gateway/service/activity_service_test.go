package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_GetTransaction(t *testing.T) {
	t.Run("PostedWithProjection", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()
		record := &activity.Record{LedgerTransactionID: id, Amount: 100}

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, Status: transaction.StatusPosted}, nil).Once()
		actRepo.On("GetByTransactionID", mock.Anything, id).Return(record, nil).Once()

		view, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		require.NoError(t, err)
		assert.Same(t, record, view.Posted)
	})

	t.Run("PostedNotYetProjected", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, Status: transaction.StatusPosted}, nil).Once()
		actRepo.On("GetByTransactionID", mock.Anything, id).Return(nil, activity.ErrRecordNotFound{TransactionID: id}).Once()

		view, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		require.NoError(t, err)
		assert.Nil(t, view.Posted)
		assert.Equal(t, transaction.StatusPosted, view.Transaction.Status)
	})

	t.Run("FailedSkipsProjection", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()
		reason := "posting failure: timeout"

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, Status: transaction.StatusFailed, FailureReason: &reason}, nil).Once()

		view, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		require.NoError(t, err)
		assert.Nil(t, view.Posted)
		actRepo.AssertNotCalled(t, "GetByTransactionID", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()

		txRepo.On("GetByID", mock.Anything, id).Return(nil, transaction.ErrTransactionNotFound{ID: id}).Once()

		_, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
	})

	t.Run("OtherTenantReadsAsMissing", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-2", Environment: shared.EnvironmentSandbox, Status: transaction.StatusPosted}, nil).Once()

		view, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		assert.Nil(t, view)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
		actRepo.AssertNotCalled(t, "GetByTransactionID", mock.Anything, mock.Anything)

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-1", Environment: shared.EnvironmentProduction, Status: transaction.StatusPosted}, nil).Once()
		_, err = svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)
		assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
	})

	t.Run("ProjectionError", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		id := uuid.New()

		txRepo.On("GetByID", mock.Anything, id).Return(&transaction.Transaction{ID: id, TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, Status: transaction.StatusPosted}, nil).Once()
		actRepo.On("GetByTransactionID", mock.Anything, id).Return(nil, errors.New("mongo unavailable")).Once()

		_, err := svc.GetTransaction(context.Background(), "tenant-1", shared.EnvironmentSandbox, id)

		assert.ErrorContains(t, err, "mongo unavailable")
	})
}

func TestActivityService_GetAccountActivity(t *testing.T) {
	filter := activity.AccountFilter{TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, AccountID: uuid.New()}

	t.Run("Success", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)
		records := []*activity.Record{{LedgerTransactionID: uuid.New()}, {LedgerTransactionID: uuid.New()}}

		actRepo.On("GetByAccount", mock.Anything, filter, 10, 20).Return(records, nil).Once()
		actRepo.On("CountByAccount", mock.Anything, filter).Return(int64(22), nil).Once()

		got, total, err := svc.GetAccountActivity(context.Background(), filter, 3, 10)

		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(22), total)
	})

	t.Run("CountError", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)

		actRepo.On("GetByAccount", mock.Anything, filter, 10, 0).Return([]*activity.Record{}, nil).Once()
		actRepo.On("CountByAccount", mock.Anything, filter).Return(int64(0), errors.New("count failed")).Once()

		_, _, err := svc.GetAccountActivity(context.Background(), filter, 1, 10)

		assert.ErrorContains(t, err, "count failed")
	})

	t.Run("PageOutOfRange", func(t *testing.T) {
		txRepo, actRepo := new(MockTransactionRepo), new(MockActivityRepo)
		svc := NewActivityService(testLogger(), txRepo, actRepo)

		for _, page := range []int{0, MaxActivityPage + 1, math.MaxInt} {
			_, _, err := svc.GetAccountActivity(context.Background(), filter, page, 100)
			assert.ErrorIs(t, err, shared.ErrValidation{Field: "page"})
		}
		actRepo.AssertNotCalled(t, "GetByAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
