package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityIndexes backs the upsert key and the newest-first account listing
func activityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ledger_transaction_id", Value: 1}},
			Options: options.Index().SetName("uniq_ledger_transaction_id").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "environment", Value: 1},
				{Key: "account_ids", Value: 1},
				{Key: "posted_at", Value: -1},
			},
			Options: options.Index().SetName("tenant_account_posted_at"),
		},
	}
}

// EnsureActivityIndexes creates the projection indexes. Existing indexes with
// the same definition are left alone by the server.
func EnsureActivityIndexes(ctx context.Context, db *mongo.Database) error {
	names, err := db.Collection(ActivityCollectionName).Indexes().CreateMany(ctx, activityIndexes())
	if err != nil {
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	if len(names) != len(activityIndexes()) {
		return fmt.Errorf("expected %d activity indexes, server reported %d", len(activityIndexes()), len(names))
	}
	return nil
}
