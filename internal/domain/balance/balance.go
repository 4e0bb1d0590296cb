package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// Balance is the running raw balance of one ledger account. Debits add to it
// and credits subtract from it regardless of classification.
type Balance struct {
	AccountID   uuid.UUID          `json:"account_id"`
	TenantID    string             `json:"tenant_id"`
	Environment shared.Environment `json:"environment"`
	RawBalance  int64              `json:"raw_balance"`
	Currency    string             `json:"currency"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Delta is the raw balance change of posting amount on direction
func Delta(direction ledger.Direction, amount int64) int64 {
	return direction.SignedAmount(amount)
}

// Display converts a raw balance into the figure a holder of the account
// expects: credit-normal accounts are negated.
func Display(raw int64, classification account.Classification) int64 {
	side, err := classification.NormalSide()
	if err != nil || side == ledger.DirectionDebit {
		return raw
	}
	return -raw
}

// View is the balance of an account as returned to callers
type View struct {
	AccountID         uuid.UUID              `json:"account_id"`
	ExternalAccountID string                 `json:"external_account_id"`
	Classification    account.Classification `json:"classification"`
	Currency          string                 `json:"currency"`
	RawBalance        int64                  `json:"raw_balance"`
	Balance           int64                  `json:"balance"`
	Formatted         string                 `json:"formatted"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// NewView builds the caller-facing balance of acc from its stored balance
func NewView(acc *account.LedgerAccount, b *Balance) *View {
	display := Display(b.RawBalance, acc.Classification)
	return &View{
		AccountID:         acc.ID,
		ExternalAccountID: acc.ExternalAccountID,
		Classification:    acc.Classification,
		Currency:          acc.Currency,
		RawBalance:        b.RawBalance,
		Balance:           display,
		Formatted:         FormatMinorUnits(display, acc.Currency),
		UpdatedAt:         b.UpdatedAt,
	}
}
