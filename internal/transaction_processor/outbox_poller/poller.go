package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/config"
	"github.com/ledger-posting-engine/internal/domain/outbox"
)

// Poller drains pending outbox messages on a fixed interval. Delivery happens
// after the posting committed, so a failure here never affects a posting.
type Poller struct {
	outboxRepo  outbox.Repository
	dispatcher  EventDispatcher
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

func NewPoller(cfg *config.OutboxConfig, outboxRepo outbox.Repository, dispatcher EventDispatcher, logger *slog.Logger) *Poller {
	return &Poller{
		outboxRepo:  outboxRepo,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "outbox_poller"),
		interval:    cfg.PollingInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxRetryAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Outbox poller started",
		"interval", p.interval.String(),
		"batch_size", p.batchSize,
		"max_attempts", p.maxAttempts,
	)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.Error("Outbox batch failed", "error", err)
			}
		}
	}
}

// drain delivers one batch. A failed message is recorded and the batch
// moves on, so one stuck event cannot hold back the others.
func (p *Poller) drain(ctx context.Context) error {
	batch, err := p.outboxRepo.Pending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to load outbox batch: %w", err)
	}
	if len(batch) > 0 {
		p.logger.Debug("Delivering outbox batch", "size", len(batch))
	}

	for _, msg := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.dispatcher.Dispatch(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
		}
	}
	return nil
}

func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID.String())

	var undecodable ErrUndecodablePayload
	if errors.As(cause, &undecodable) {
		logger.Error("Abandoning undecodable outbox message", "error", cause)
		msg.Abandon(cause, p.now())
	} else if msg.Fail(cause, p.maxAttempts, p.now()) {
		logger.Error("Outbox message exhausted its delivery attempts", "attempts", msg.Attempts, "error", cause)
	} else {
		logger.Warn("Outbox delivery failed, will retry", "attempts", msg.Attempts, "error", cause)
	}

	if err := p.outboxRepo.SaveAttempt(ctx, msg); err != nil {
		logger.Error("Failed to record outbox delivery attempt", "error", err)
	}
}
