package shared

// Operation is the kind of money movement a posting represents
type Operation string

const (
	OperationDeposit  Operation = "deposit"
	OperationWithdraw Operation = "withdraw"
	OperationTransfer Operation = "transfer"
)

// Change is the economic effect a posting has on one side of the movement
type Change int

const (
	ChangeIncrease Change = iota + 1
	ChangeDecrease
)

func (c Change) String() string {
	switch c {
	case ChangeIncrease:
		return "increase"
	case ChangeDecrease:
		return "decrease"
	}
	return "unknown"
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
