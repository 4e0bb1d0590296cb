// Package rules holds the pure posting rules of the ledger: which operation a
// movement between two accounts is, how each side changes, and which entry
// direction expresses that change for an account's classification.
package rules

import (
	"fmt"

	"github.com/ledger-posting-engine/internal/domain/account"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

// FundingSource returns the external id the money is taken from. A deposit that
// names the customer on both sides is funded from the tenant's cash-control account.
func FundingSource(controls *account.ControlAccounts, request *shared.PostingRequest) string {
	if request.Deposit && request.SourceAccountID == request.DestinationAccountID {
		return controls.CashControlID()
	}
	return request.SourceAccountID
}

// Classify decides the operation from the resolved external ids
func Classify(controls *account.ControlAccounts, sourceID, destinationID string, deposit bool) shared.Operation {
	switch {
	case deposit:
		return shared.OperationDeposit
	case controls.IsCashControl(sourceID) && !controls.IsControl(destinationID):
		return shared.OperationDeposit
	case !controls.IsControl(sourceID) && controls.IsCashControl(destinationID):
		return shared.OperationWithdraw
	default:
		return shared.OperationTransfer
	}
}

// Changes returns the economic effect of op on the source and destination accounts
func Changes(op shared.Operation) (source, destination shared.Change) {
	switch op {
	case shared.OperationDeposit:
		return shared.ChangeIncrease, shared.ChangeIncrease
	case shared.OperationWithdraw:
		return shared.ChangeDecrease, shared.ChangeDecrease
	default:
		return shared.ChangeDecrease, shared.ChangeIncrease
	}
}

// EntryDirection posts an increase on the classification's normal side and a
// decrease on the opposite side.
func EntryDirection(classification account.Classification, change shared.Change) (ledger.Direction, error) {
	side, err := classification.NormalSide()
	if err != nil {
		return "", err
	}
	switch change {
	case shared.ChangeIncrease:
		return side, nil
	case shared.ChangeDecrease:
		return side.Opposite(), nil
	}
	return "", fmt.Errorf("unknown balance change %d", change)
}

// Plan is the classified form of a posting between two resolved accounts
type Plan struct {
	Operation   shared.Operation
	Source      ledger.Leg
	Destination ledger.Leg
}

// Build classifies the movement and derives one leg per account. It does not
// check that the legs balance; ledger.NewPair does.
func Build(controls *account.ControlAccounts, source, destination *account.LedgerAccount, deposit bool) (Plan, error) {
	op := Classify(controls, source.ExternalAccountID, destination.ExternalAccountID, deposit)
	sourceChange, destinationChange := Changes(op)

	sourceDir, err := EntryDirection(source.Classification, sourceChange)
	if err != nil {
		return Plan{}, err
	}
	destinationDir, err := EntryDirection(destination.Classification, destinationChange)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Operation:   op,
		Source:      ledger.Leg{AccountID: source.ID, Direction: sourceDir},
		Destination: ledger.Leg{AccountID: destination.ID, Direction: destinationDir},
	}, nil
}
