package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/platform/persistence"
)

// failureRecordTimeout bounds the write that marks an attempt failed
const failureRecordTimeout = 5 * time.Second

type PostingServiceImpl struct {
	db              persistence.TxBeginner
	validator       RequestValidator
	guard           IdempotencyGuard
	resolver        AccountResolver
	journal         Journal
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	timeout         time.Duration
	logger          *slog.Logger
}

func NewPostingService(
	db persistence.TxBeginner,
	validator RequestValidator,
	guard IdempotencyGuard,
	resolver AccountResolver,
	journal Journal,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	timeout time.Duration,
	logger *slog.Logger,
) PostingService {
	return &PostingServiceImpl{
		db:              db,
		validator:       validator,
		guard:           guard,
		resolver:        resolver,
		journal:         journal,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		timeout:         timeout,
		logger:          logger,
	}
}

// PostTransaction validates the request, claims its idempotency key and then
// writes entries, balances, the posted status and the outbox row in one
// database transaction. A failure after the claim rolls the unit back and
// records the reason on the transaction row.
func (s *PostingServiceImpl) PostTransaction(ctx context.Context, request *shared.PostingRequest) (*Result, error) {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Warn("Posting request rejected", "idempotency_key", request.IdempotencyKey, "error", err)
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	txn, replay, err := s.guard.Claim(ctx, request)
	if err != nil {
		return nil, err
	}
	if replay {
		logger.Info("Idempotent replay of posted transaction", "transaction_id", txn.ID.String(), "idempotency_key", request.IdempotencyKey)
		return &Result{TransactionID: txn.ID, Status: txn.Status, Replayed: true}, nil
	}

	logger = logger.With("transaction_id", txn.ID.String())
	logger.Info("Posting transaction",
		"tenant_id", request.TenantID,
		"environment", request.Environment.String(),
		"source", request.SourceAccountID,
		"destination", request.DestinationAccountID,
		"amount", request.Amount,
		"currency", request.Currency,
	)

	var event *shared.TransactionPosted
	err = persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		source, destination, err := s.resolver.ResolvePair(ctx, tx, request)
		if err != nil {
			return err
		}
		if event, err = s.journal.Post(ctx, tx, txn, request, source, destination); err != nil {
			return err
		}
		if err := s.outboxManager.CreateOutboxEntry(ctx, tx, event); err != nil {
			return err
		}
		return s.guard.Complete(ctx, tx, txn)
	})
	if err != nil {
		failure := postingError(txn, err)
		reason := failure.Error()
		logger.Error("Posting failed, transaction rolled back", "error", err)

		// The attempt's deadline may already have passed; the failure still has to land
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
		recordErr := s.failureRecorder.RecordFailure(recordCtx, txn, reason)
		cancel()

		var transition transaction.ErrInvalidTransition
		switch {
		case recordErr == nil:
			return &Result{TransactionID: txn.ID, Status: transaction.StatusFailed, FailureReason: reason}, failure
		case errors.As(recordErr, &transition) && transition.From == transaction.StatusPosted:
			// The commit landed and only its acknowledgement was lost
			logger.Warn("Posting reported an error but the transaction is posted", "error", err)
			result := &Result{TransactionID: txn.ID, Status: transaction.StatusPosted}
			if event != nil {
				result.Operation = event.Operation
			}
			return result, nil
		default:
			// The row stays pending and is reported by the reconciler
			logger.Error("Failed to record transaction failure", "error", recordErr)
			return &Result{TransactionID: txn.ID, Status: transaction.StatusPending, FailureReason: reason}, failure
		}
	}

	logger.Info("Transaction posted", "operation", string(event.Operation))
	return &Result{TransactionID: txn.ID, Status: transaction.StatusPosted, Operation: event.Operation}, nil
}

// postingError keeps the domain errors callers distinguish and folds
// everything else into ErrPostingFailure.
func postingError(txn *transaction.Transaction, err error) error {
	var invalidType account.ErrInvalidAccountType
	if errors.As(err, &invalidType) {
		return invalidType
	}
	var violation ledger.ErrInvariantViolation
	if errors.As(err, &violation) {
		return violation
	}
	return shared.ErrPostingFailure{TransactionID: txn.ID, Reason: err.Error(), Err: err}
}
