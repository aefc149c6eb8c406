package report

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	r := sampleReport()

	require.NoError(t, store.Insert(ctx, r))

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	// The persisted body must export byte-identically to the original.
	assert.Equal(t, Export(r), Export(got))
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	store := newTestSQLiteStore(t)
	_, err := store.Get(context.Background(), "rep-missing")
	assert.ErrorIs(t, err, bylaw.ErrNotFound)
}

func TestSQLiteStoreDuplicateInsert(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	r := sampleReport()

	require.NoError(t, store.Insert(ctx, r))
	err := store.Insert(ctx, r)
	require.Error(t, err)
	var storageErr *bylaw.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestMemoryStoreRejectsDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	r := sampleReport()

	require.NoError(t, store.Insert(ctx, r))
	assert.ErrorIs(t, store.Insert(ctx, r), bylaw.ErrInvalidState)
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	r := sampleReport()
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	got.ComplianceScore = 0

	again, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleReport().ComplianceScore, again.ComplianceScore)
}
