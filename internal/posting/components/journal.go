package components

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/balance"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
	"github.com/ledger-posting-engine/internal/domain/transaction"
	"github.com/ledger-posting-engine/internal/posting/rules"
	"github.com/ledger-posting-engine/internal/posting/service"
)

type JournalImpl struct {
	entryRepo   ledger.Repository
	balanceRepo balance.Repository
	controls    *account.ControlAccounts
	logger      *slog.Logger
}

func NewJournal(
	entryRepo ledger.Repository,
	balanceRepo balance.Repository,
	controls *account.ControlAccounts,
	logger *slog.Logger,
) service.Journal {
	return &JournalImpl{
		entryRepo:   entryRepo,
		balanceRepo: balanceRepo,
		controls:    controls,
		logger:      logger,
	}
}

// Post derives the two entries of txn, records them, applies the balance
// changes and re-reads the stored entries before returning the posted event.
// Every write goes through tx.
func (j *JournalImpl) Post(
	ctx context.Context,
	tx pgx.Tx,
	txn *transaction.Transaction,
	request *shared.PostingRequest,
	source, destination *account.LedgerAccount,
) (*shared.TransactionPosted, error) {
	logger := j.logger
	if request.CorrelationID != "" {
		logger = j.logger.With("correlation_id", request.CorrelationID)
	}

	plan, err := rules.Build(j.controls, source, destination, request.Deposit)
	if err != nil {
		return nil, err
	}

	pair, err := ledger.NewPair(txn.ID, plan.Source, plan.Destination, request.Amount, request.Currency)
	if err != nil {
		logger.Warn("Posting rules produced unbalanced legs",
			"transaction_id", txn.ID.String(),
			"operation", string(plan.Operation),
			"error", err,
		)
		return nil, err
	}

	entryRepoTx := j.entryRepo.WithTx(tx)
	for _, entry := range pair.Entries() {
		entry := entry
		if err := entryRepoTx.Record(ctx, &entry); err != nil {
			return nil, fmt.Errorf("failed to record %s entry for tx %s: %w", entry.Direction, txn.ID.String(), err)
		}
	}

	balancesAfter, err := j.applyBalances(ctx, tx, pair, source, destination)
	if err != nil {
		return nil, err
	}

	stored, err := entryRepoTx.ListByTransactionID(ctx, txn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload entries for tx %s: %w", txn.ID.String(), err)
	}
	if err := ledger.VerifyEntries(txn.ID, stored); err != nil {
		return nil, err
	}

	logger.Info("Ledger entries posted",
		"transaction_id", txn.ID.String(),
		"operation", string(plan.Operation),
		"entries", pair.String(),
	)

	legs := []shared.PostedLeg{
		postedLeg(source, plan.Source.Direction, request.Amount, balancesAfter[source.ID]),
		postedLeg(destination, plan.Destination.Direction, request.Amount, balancesAfter[destination.ID]),
	}

	return &shared.TransactionPosted{
		TenantID:              txn.TenantID,
		Environment:           txn.Environment,
		LedgerTransactionID:   txn.ID,
		ExternalTransactionID: txn.ExternalTransactionID,
		CorrelationID:         txn.CorrelationID,
		Operation:             plan.Operation,
		Amount:                request.Amount,
		Currency:              request.Currency,
		Legs:                  legs,
		Timestamp:             time.Now().UTC(),
	}, nil
}

// applyBalances updates balances in account id order so concurrent postings
// over the same two accounts lock their rows in the same sequence.
func (j *JournalImpl) applyBalances(
	ctx context.Context,
	tx pgx.Tx,
	pair ledger.Pair,
	source, destination *account.LedgerAccount,
) (map[uuid.UUID]int64, error) {
	accounts := map[uuid.UUID]*account.LedgerAccount{
		source.ID:      source,
		destination.ID: destination,
	}

	entries := pair.Entries()
	sort.Slice(entries, func(a, b int) bool {
		return bytes.Compare(entries[a].AccountID[:], entries[b].AccountID[:]) < 0
	})

	balanceRepoTx := j.balanceRepo.WithTx(tx)
	after := make(map[uuid.UUID]int64, len(entries))
	for _, entry := range entries {
		raw, err := balanceRepoTx.Apply(ctx, accounts[entry.AccountID], entry.Direction, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s to account %s: %w", entry.Direction, entry.AccountID.String(), err)
		}
		after[entry.AccountID] = raw
	}
	return after, nil
}

func postedLeg(acc *account.LedgerAccount, direction ledger.Direction, amount, rawAfter int64) shared.PostedLeg {
	return shared.PostedLeg{
		AccountID:         acc.ID,
		ExternalAccountID: acc.ExternalAccountID,
		Classification:    string(acc.Classification),
		Direction:         string(direction),
		Amount:            amount,
		RawBalanceAfter:   rawAfter,
	}
}
