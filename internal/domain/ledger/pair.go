package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Leg names an account and the direction it is posted on
type Leg struct {
	AccountID uuid.UUID
	Direction Direction
}

// Pair is the balanced debit/credit couple of one transaction. The zero value
// is not usable; build pairs with NewPair.
type Pair struct {
	debit  Entry
	credit Entry
}

// NewPair builds the two entries of a transaction from its legs. It fails with
// ErrInvariantViolation unless exactly one leg debits and the other credits.
func NewPair(transactionID uuid.UUID, first, second Leg, amount int64, currency string) (Pair, error) {
	if amount <= 0 {
		return Pair{}, ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("entry amount must be positive, got %d", amount)}
	}
	if currency == "" {
		return Pair{}, ErrInvariantViolation{TransactionID: transactionID, Reason: "entry currency is required"}
	}
	if !first.Direction.IsValid() || !second.Direction.IsValid() {
		return Pair{}, ErrInvariantViolation{TransactionID: transactionID, Reason: "entry direction must be debit or credit"}
	}
	if first.Direction == second.Direction {
		return Pair{}, ErrInvariantViolation{
			TransactionID: transactionID,
			Reason:        fmt.Sprintf("both entries would post as %s", first.Direction),
		}
	}

	debitLeg, creditLeg := first, second
	if first.Direction == DirectionCredit {
		debitLeg, creditLeg = second, first
	}

	now := time.Now().UTC()
	newEntry := func(leg Leg) Entry {
		return Entry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			AccountID:     leg.AccountID,
			Direction:     leg.Direction,
			Amount:        amount,
			Currency:      currency,
			CreatedAt:     now,
		}
	}

	return Pair{debit: newEntry(debitLeg), credit: newEntry(creditLeg)}, nil
}

func (p Pair) Debit() Entry  { return p.debit }
func (p Pair) Credit() Entry { return p.credit }

// Entries returns the debit followed by the credit
func (p Pair) Entries() []Entry {
	return []Entry{p.debit, p.credit}
}

func (p Pair) TransactionID() uuid.UUID { return p.debit.TransactionID }
func (p Pair) Amount() int64            { return p.debit.Amount }
func (p Pair) Currency() string         { return p.debit.Currency }

func (p Pair) String() string {
	return fmt.Sprintf("DR %s / CR %s: %d %s", p.debit.AccountID, p.credit.AccountID, p.debit.Amount, p.debit.Currency)
}

// VerifyEntries checks the stored entries of one transaction: exactly two,
// one of each direction, equal amounts and a single currency.
func VerifyEntries(transactionID uuid.UUID, entries []Entry) error {
	if len(entries) != 2 {
		return ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("expected 2 entries, found %d", len(entries))}
	}

	var debits, credits int
	for _, e := range entries {
		if e.TransactionID != transactionID {
			return ErrInvariantViolation{TransactionID: transactionID, Reason: "entry belongs to another transaction"}
		}
		switch e.Direction {
		case DirectionDebit:
			debits++
		case DirectionCredit:
			credits++
		default:
			return ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("unknown entry direction %q", e.Direction)}
		}
	}
	if debits != 1 || credits != 1 {
		return ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("expected one debit and one credit, found %d debit(s) and %d credit(s)", debits, credits)}
	}
	if entries[0].Amount != entries[1].Amount {
		return ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("entry amounts differ: %d != %d", entries[0].Amount, entries[1].Amount)}
	}
	if entries[0].Currency != entries[1].Currency {
		return ErrInvariantViolation{TransactionID: transactionID, Reason: fmt.Sprintf("entry currencies differ: %s != %s", entries[0].Currency, entries[1].Currency)}
	}
	return nil
}
