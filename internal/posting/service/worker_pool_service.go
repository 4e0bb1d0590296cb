package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolPostingService bounds how many postings run at once. Callers
// beyond the pool size queue for a free worker.
type WorkerPoolPostingService struct {
	next   PostingService
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type postingOutcome struct {
	result *Result
	err    error
}

// antsLogger routes the pool's own diagnostics into slog
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func NewWorkerPoolPostingService(next PostingService, cfg WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolPostingService, error) {
	pool, err := ants.NewPool(cfg.Size, ants.WithLogger(antsLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("failed to create posting worker pool: %w", err)
	}
	return &WorkerPoolPostingService{next: next, pool: pool, logger: logger}, nil
}

// PostTransaction runs the posting on a pool worker and waits for it. The
// caller's context still governs the posting itself. A panic inside the
// posting comes back as an error instead of leaving the caller waiting.
func (s *WorkerPoolPostingService) PostTransaction(ctx context.Context, request *shared.PostingRequest) (*Result, error) {
	outcome := make(chan postingOutcome, 1)
	req := *request

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Posting panicked", "idempotency_key", req.IdempotencyKey, "panic", r)
				outcome <- postingOutcome{err: fmt.Errorf("posting %s panicked: %v", req.IdempotencyKey, r)}
			}
		}()
		result, err := s.next.PostTransaction(ctx, &req)
		outcome <- postingOutcome{result: result, err: err}
	}

	if err := s.pool.Submit(task); err != nil {
		s.logger.Error("Worker pool rejected posting",
			"idempotency_key", request.IdempotencyKey,
			"correlation_id", request.CorrelationID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to schedule posting: %w", err)
	}

	select {
	case o := <-outcome:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting postings and waits up to timeout for the running
// ones to finish
func (s *WorkerPoolPostingService) Shutdown(timeout time.Duration) error {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running(), "waiting", s.pool.Waiting())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("worker pool did not drain within %s: %w", timeout, err)
	}
	return nil
}

func (s *WorkerPoolPostingService) Capacity() int {
	return s.pool.Cap()
}
