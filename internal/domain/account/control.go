package account

import "strings"

const (
	DefaultControlPrefix = "SYSTEM_"
	CashControlID        = "SYSTEM_CASH_CONTROL"
	BankClearingID       = "SYSTEM_BANK_CLEARING"
	FeeIncomeID          = "SYSTEM_FEE_INCOME"
)

// ControlAccounts recognizes the system-owned accounts of the platform and
// knows the classification each one is created with.
type ControlAccounts struct {
	prefix      string
	cashControl string
	known       map[string]Classification
}

// NewControlAccounts builds the registry. Empty arguments fall back to the
// default prefix and cash-control id.
func NewControlAccounts(prefix, cashControlID string) *ControlAccounts {
	if prefix == "" {
		prefix = DefaultControlPrefix
	}
	if cashControlID == "" {
		cashControlID = CashControlID
	}
	return &ControlAccounts{
		prefix:      prefix,
		cashControl: cashControlID,
		known: map[string]Classification{
			cashControlID:  ClassificationAsset,
			BankClearingID: ClassificationAsset,
			FeeIncomeID:    ClassificationIncome,
		},
	}
}

// IsControl reports whether externalID names a system-owned account
func (c *ControlAccounts) IsControl(externalID string) bool {
	_, ok := c.known[externalID]
	return ok || strings.HasPrefix(externalID, c.prefix)
}

func (c *ControlAccounts) IsCashControl(externalID string) bool {
	return externalID == c.cashControl
}

func (c *ControlAccounts) CashControlID() string {
	return c.cashControl
}

// Classification returns the fixed classification of a known control account
func (c *ControlAccounts) Classification(externalID string) (Classification, bool) {
	class, ok := c.known[externalID]
	return class, ok
}
