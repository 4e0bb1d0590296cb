package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/outbox"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stores the posted event for later publication, within tx
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, event *shared.TransactionPosted) error {
	logger := m.logger
	if event.CorrelationID != "" {
		logger = m.logger.With("correlation_id", event.CorrelationID)
	}

	outboxMessage, err := outbox.NewMessage(event)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"transaction_id", event.LedgerTransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", event.LedgerTransactionID.String(), err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"transaction_id", event.LedgerTransactionID.String(),
			"tenant_id", event.TenantID,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", event.LedgerTransactionID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"transaction_id", event.LedgerTransactionID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
