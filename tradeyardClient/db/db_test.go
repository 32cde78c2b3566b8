package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestDB_OpenModes(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		database, err := OpenInMemoryDB(true)
		require.NoError(t, err)
		require.NotNil(t, database.Client())
		assert.True(t, database.Client().Migrator().HasTable(&store.Operation{}))
		require.NoError(t, database.Close())
	})

	t.Run("file-backed creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "databases")
		database, err := OpenFileDB(dir, "journal.db", true)
		require.NoError(t, err)
		defer database.Close()

		_, err = os.Stat(filepath.Join(dir, "journal.db"))
		assert.NoError(t, err)
	})

	t.Run("file-backed persists across reopen", func(t *testing.T) {
		dir := t.TempDir()
		database, err := OpenFileDB(dir, "journal.db", true)
		require.NoError(t, err)
		require.NoError(t, database.RecordOperation(&store.Operation{Kind: "sell", Mint: "mintA"}))
		require.NoError(t, database.Close())

		reopened, err := OpenFileDB(dir, "journal.db", false)
		require.NoError(t, err)
		defer reopened.Close()

		ops, err := reopened.ListOperationsByMint("mintA", 0)
		require.NoError(t, err)
		assert.Len(t, ops, 1)
	})

	t.Run("invalid path fails", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := OpenFileDB(filepath.Join(file, "sub"), "journal.db", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prepare database path")
	})
}

func TestDB_RecordOperation(t *testing.T) {
	database := newTestDB(t)

	t.Run("assigns id and pending status", func(t *testing.T) {
		op := &store.Operation{Kind: "sell", Mint: "mintA", Signer: "seller", Lamports: 500}
		require.NoError(t, database.RecordOperation(op))

		assert.Len(t, op.OperationID, 26)
		assert.Equal(t, store.StatusPending, op.Status)
		assert.NotZero(t, op.ID)
	})

	t.Run("keeps caller supplied fields", func(t *testing.T) {
		op := &store.Operation{OperationID: "custom-id", Kind: "buy", Mint: "mintA", Status: store.StatusConfirmed}
		require.NoError(t, database.RecordOperation(op))

		got, err := database.GetOperation("custom-id")
		require.NoError(t, err)
		assert.Equal(t, "buy", got.Kind)
		assert.Equal(t, store.StatusConfirmed, got.Status)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := database.RecordOperation(&store.Operation{OperationID: "custom-id", Kind: "buy", Mint: "mintA"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record operation")
	})
}

func TestDB_UpdateOperationStatus(t *testing.T) {
	database := newTestDB(t)

	op := &store.Operation{Kind: "cancel", Mint: "mintB"}
	require.NoError(t, database.RecordOperation(op))

	require.NoError(t, database.UpdateOperationStatus(op.OperationID, store.StatusFailed, "sig1", "boom"))

	got, err := database.GetOperation(op.OperationID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Equal(t, "sig1", got.Signature)
	assert.Equal(t, "boom", got.ErrorMsg)

	err = database.UpdateOperationStatus("missing", store.StatusConfirmed, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDB_ListOperationsByMint(t *testing.T) {
	database := newTestDB(t)

	for _, kind := range []string{"sell", "cancel", "sell"} {
		require.NoError(t, database.RecordOperation(&store.Operation{Kind: kind, Mint: "mintC"}))
	}
	require.NoError(t, database.RecordOperation(&store.Operation{Kind: "sell", Mint: "other"}))

	all, err := database.ListOperationsByMint("mintC", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID)
	assert.Greater(t, all[1].ID, all[2].ID)

	limited, err := database.ListOperationsByMint("mintC", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := database.ListOperationsByMint("unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func ageOperation(t *testing.T, database *DB, operationID string, age time.Duration) {
	t.Helper()
	err := database.Client().Model(&store.Operation{}).
		Where("operation_id = ?", operationID).
		UpdateColumn("updated_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestDB_DeleteOperationsBefore(t *testing.T) {
	database := newTestDB(t)

	oldConfirmed := &store.Operation{Kind: "sell", Mint: "m", Status: store.StatusConfirmed}
	oldFailed := &store.Operation{Kind: "buy", Mint: "m", Status: store.StatusFailed}
	oldPending := &store.Operation{Kind: "cancel", Mint: "m"}
	fresh := &store.Operation{Kind: "sell", Mint: "m", Status: store.StatusConfirmed}
	for _, op := range []*store.Operation{oldConfirmed, oldFailed, oldPending, fresh} {
		require.NoError(t, database.RecordOperation(op))
	}
	for _, op := range []*store.Operation{oldConfirmed, oldFailed, oldPending} {
		ageOperation(t, database, op.OperationID, 48*time.Hour)
	}

	deleted, err := database.DeleteOperationsBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := database.ListOperationsByMint("m", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	ids := []string{remaining[0].OperationID, remaining[1].OperationID}
	assert.ElementsMatch(t, []string{oldPending.OperationID, fresh.OperationID}, ids)
}

func TestJournalCleaner(t *testing.T) {
	database := newTestDB(t)

	op := &store.Operation{Kind: "sell", Mint: "m", Status: store.StatusConfirmed}
	require.NoError(t, database.RecordOperation(op))
	ageOperation(t, database, op.OperationID, 2*time.Hour)

	cleaner := NewJournalCleaner(database, time.Hour, time.Hour, zerolog.Nop())

	deleted, err := cleaner.PerformCleanup()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = cleaner.PerformCleanup()
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestJournalCleaner_StartStop(t *testing.T) {
	database := newTestDB(t)

	op := &store.Operation{Kind: "buy", Mint: "m", Status: store.StatusFailed}
	require.NoError(t, database.RecordOperation(op))
	ageOperation(t, database, op.OperationID, 2*time.Hour)

	cleaner := NewJournalCleaner(database, 10*time.Millisecond, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleaner.Start(ctx)
	defer cleaner.Stop()

	_, err := database.GetOperation(op.OperationID)
	assert.Error(t, err)
}
