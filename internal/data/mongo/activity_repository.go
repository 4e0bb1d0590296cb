package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ledger-posting-engine/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the posted-transaction projection in MongoDB
	ActivityCollectionName = "posted_transactions"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) activity.Repository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert replaces the document of the record's transaction, inserting it on
// first delivery. Redelivered events overwrite an identical document.
func (r *ActivityRepository) Upsert(ctx context.Context, record *activity.Record) error {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"ledger_transaction_id": record.LedgerTransactionID}
	opts := options.Replace().SetUpsert(true)

	if _, err := collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		r.logger.Error("Failed to upsert posted transaction",
			"transaction_id", record.LedgerTransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to upsert posted transaction: %w", err)
	}

	return nil
}

// GetByTransactionID returns ErrRecordNotFound if the transaction has not been projected yet
func (r *ActivityRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*activity.Record, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"ledger_transaction_id": transactionID}
	var record activity.Record
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get posted transaction",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get posted transaction: %w", err)
	}

	return &record, nil
}

func accountFilter(filter activity.AccountFilter) bson.M {
	return bson.M{
		"tenant_id":   filter.TenantID,
		"environment": filter.Environment,
		"account_ids": filter.AccountID,
	}
}

// GetByAccount retrieves paginated records touching an account, newest first
func (r *ActivityRepository) GetByAccount(ctx context.Context, filter activity.AccountFilter, limit, offset int) ([]*activity.Record, error) {
	collection := r.db.Collection(ActivityCollectionName)

	opts := options.Find().
		SetSort(bson.M{"posted_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, accountFilter(filter), opts)
	if err != nil {
		r.logger.Error("Failed to get account activity",
			"account_id", filter.AccountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get account activity: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*activity.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode account activity",
			"account_id", filter.AccountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode account activity: %w", err)
	}

	return records, nil
}

// CountByAccount counts the records touching an account
func (r *ActivityRepository) CountByAccount(ctx context.Context, filter activity.AccountFilter) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, accountFilter(filter))
	if err != nil {
		r.logger.Error("Failed to count account activity",
			"account_id", filter.AccountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count account activity: %w", err)
	}

	return count, nil
}
