package mongo

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ledger-posting-engine/internal/domain/activity"
	"github.com/ledger-posting-engine/internal/domain/ledger"
	"github.com/ledger-posting-engine/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func sampleRecord() *activity.Record {
	source, destination := uuid.New(), uuid.New()
	return activity.FromEvent(&shared.TransactionPosted{
		TenantID:            "tenant-1",
		Environment:         shared.EnvironmentSandbox,
		LedgerTransactionID: uuid.New(),
		Operation:           shared.OperationTransfer,
		Amount:              1250,
		Currency:            "USD",
		Legs: []shared.PostedLeg{
			{AccountID: source, ExternalAccountID: "cust-1", Direction: string(ledger.DirectionDebit), Amount: 1250},
			{AccountID: destination, ExternalAccountID: "cust-2", Direction: string(ledger.DirectionCredit), Amount: 1250},
		},
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	})
}

func toDoc(t *mtest.T, v any) bson.D {
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestNewActivityRepository(t *testing.T) {
	repo := NewActivityRepository(slog.Default(), &mongo.Database{})

	assert.NotNil(t, repo)
	assert.IsType(t, &ActivityRepository{}, repo)
}

func TestActivityRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("upsert success", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		assert.NoError(mt, repo.Upsert(ctx, sampleRecord()))
	})

	mt.Run("upsert error", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "write failed",
		}))

		err := repo.Upsert(ctx, sampleRecord())
		assert.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to upsert posted transaction")
	})

	mt.Run("get by transaction id", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		record := sampleRecord()
		ns := mt.DB.Name() + "." + ActivityCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(mt, record)))

		got, err := repo.GetByTransactionID(ctx, record.LedgerTransactionID)
		require.NoError(mt, err)
		assert.Equal(mt, record.LedgerTransactionID, got.LedgerTransactionID)
		assert.Equal(mt, record.AccountIDs, got.AccountIDs)
		assert.Len(mt, got.Legs, 2)
	})

	mt.Run("get by transaction id not found", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		ns := mt.DB.Name() + "." + ActivityCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		id := uuid.New()
		got, err := repo.GetByTransactionID(ctx, id)
		assert.Nil(mt, got)
		assert.ErrorIs(mt, err, activity.ErrRecordNotFound{TransactionID: id})
	})

	mt.Run("get by account", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		first, second := sampleRecord(), sampleRecord()
		ns := mt.DB.Name() + "." + ActivityCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toDoc(mt, first), toDoc(mt, second)))

		records, err := repo.GetByAccount(ctx, activity.AccountFilter{
			TenantID:    "tenant-1",
			Environment: shared.EnvironmentSandbox,
			AccountID:   first.AccountIDs[0],
		}, 10, 0)
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, first.LedgerTransactionID, records[0].LedgerTransactionID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, "tenant-1", started.Command.Lookup("filter", "tenant_id").StringValue())
		assert.Equal(mt, "sandbox", started.Command.Lookup("filter", "environment").StringValue())
	})

	mt.Run("count by account", func(mt *mtest.T) {
		repo := NewActivityRepository(newTestLogger(), mt.DB)
		ns := mt.DB.Name() + "." + ActivityCollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		count, err := repo.CountByAccount(ctx, activity.AccountFilter{TenantID: "tenant-1", Environment: shared.EnvironmentSandbox, AccountID: uuid.New()})
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), count)
	})
}
