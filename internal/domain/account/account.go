package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

var (
	ErrEmptyTenant           = errors.New("tenant id cannot be empty")
	ErrEmptyExternalID       = errors.New("external account id cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// Classification is the accounting class of a ledger account
type Classification string

const (
	ClassificationAsset     Classification = "asset"
	ClassificationLiability Classification = "liability"
	ClassificationEquity    Classification = "equity"
	ClassificationIncome    Classification = "income"
	ClassificationExpense   Classification = "expense"
)

// normalSides maps each classification to the side that increases it.
// Every Classification constant must have an entry here.
var normalSides = map[Classification]ledger.Direction{
	ClassificationAsset:     ledger.DirectionDebit,
	ClassificationExpense:   ledger.DirectionDebit,
	ClassificationLiability: ledger.DirectionCredit,
	ClassificationEquity:    ledger.DirectionCredit,
	ClassificationIncome:    ledger.DirectionCredit,
}

// ParseClassification converts raw input into a Classification, failing with
// ErrInvalidAccountType for anything outside the five known classes.
func ParseClassification(raw string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", ErrInvalidAccountType{Classification: raw}
	}
	return c, nil
}

func (c Classification) IsValid() bool {
	_, ok := normalSides[c]
	return ok
}

// NormalSide returns the entry direction that economically increases an
// account of this classification.
func (c Classification) NormalSide() (ledger.Direction, error) {
	side, ok := normalSides[c]
	if !ok {
		return "", ErrInvalidAccountType{Classification: string(c)}
	}
	return side, nil
}

// Key is the natural identity of a ledger account
type Key struct {
	TenantID          string
	Environment       shared.Environment
	ExternalAccountID string
	Currency          string
}

// LedgerAccount is a durable account in the ledger. Its classification is
// fixed at creation.
type LedgerAccount struct {
	ID                uuid.UUID          `json:"id"`
	TenantID          string             `json:"tenant_id"`
	Environment       shared.Environment `json:"environment"`
	ExternalAccountID string             `json:"external_account_id"`
	Currency          string             `json:"currency"`
	Classification    Classification     `json:"classification"`
	CreatedAt         time.Time          `json:"created_at"`
}

// NewLedgerAccount creates an account for key with the given classification
func NewLedgerAccount(key Key, classification Classification) (*LedgerAccount, error) {
	if key.TenantID == "" {
		return nil, ErrEmptyTenant
	}
	if key.ExternalAccountID == "" {
		return nil, ErrEmptyExternalID
	}
	if len(key.Currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if !classification.IsValid() {
		return nil, ErrInvalidAccountType{Classification: string(classification)}
	}

	return &LedgerAccount{
		ID:                uuid.New(),
		TenantID:          key.TenantID,
		Environment:       key.Environment,
		ExternalAccountID: key.ExternalAccountID,
		Currency:          key.Currency,
		Classification:    classification,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// Key returns the natural identity of the account
func (a *LedgerAccount) Key() Key {
	return Key{
		TenantID:          a.TenantID,
		Environment:       a.Environment,
		ExternalAccountID: a.ExternalAccountID,
		Currency:          a.Currency,
	}
}
