package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repository persists outbox messages. Create runs inside the posting
// transaction through WithTx; the delivery methods run on the pool.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	// Pending returns up to limit undelivered messages, oldest first
	Pending(ctx context.Context, limit int) ([]*Message, error)
	MarkProcessed(ctx context.Context, id int64) error
	// SaveAttempt writes the attempt count, status and last error of message
	SaveAttempt(ctx context.Context, message *Message) error
	WithTx(tx pgx.Tx) Repository
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message %d not found", e.ID)
}

func (e ErrMessageNotFound) Is(target error) bool {
	_, ok := target.(ErrMessageNotFound)
	return ok
}
