package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func postedEvent() *shared.TransactionPosted {
	return &shared.TransactionPosted{
		TenantID:            "tenant-1",
		Environment:         shared.EnvironmentSandbox,
		LedgerTransactionID: uuid.New(),
		CorrelationID:       "corr-a",
		Operation:           shared.OperationDeposit,
		Amount:              10000,
		Currency:            "USD",
		Timestamp:           time.Now().UTC(),
	}
}

func TestOutboxManager_CreateOutboxEntry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		setupMock     func(repo *MockOutboxRepo, event *shared.TransactionPosted)
		expectedError string
	}{
		{
			name: "successful creation",
			setupMock: func(repo *MockOutboxRepo, event *shared.TransactionPosted) {
				repo.On("Create", ctx, mock.MatchedBy(func(m *outbox.Message) bool {
					return m.TransactionID == event.LedgerTransactionID &&
						m.TenantID == "tenant-1" &&
						m.Status == shared.OutboxStatusPending
				})).Return(nil).Once()
			},
		},
		{
			name: "repository error",
			setupMock: func(repo *MockOutboxRepo, event *shared.TransactionPosted) {
				repo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(errors.New("insert failed")).Once()
			},
			expectedError: "failed to create outbox message for tx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOutboxRepo)
			event := postedEvent()
			tt.setupMock(repo, event)

			err := NewOutboxManager(repo, slog.Default()).CreateOutboxEntry(ctx, nil, event)

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
