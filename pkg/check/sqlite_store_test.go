package check

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection so every statement sees the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func sampleCheck(id string, date time.Time) *ComplianceCheck {
	return &ComplianceCheck{
		ID:             id,
		ProjectID:      "prj-1",
		ProjectName:    "Menara Test",
		BuildingType:   bylaw.BuildingCommercial,
		BuildingHeight: 45,
		FloorArea:      5000,
		Occupancy:      400,
		CheckDate:      date.UTC(),
		Status:         StatusPending,
	}
}

func TestSQLiteInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	c := sampleCheck("chk-1", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, c))

	got, err := store.Get(ctx, "chk-1")
	require.NoError(t, err)
	assert.Equal(t, c.ProjectID, got.ProjectID)
	assert.Equal(t, c.BuildingType, got.BuildingType)
	assert.True(t, c.CheckDate.Equal(got.CheckDate))
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.Result)
}

func TestSQLiteGetNotFound(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, bylaw.ErrNotFound)
}

func TestSQLitePersistsResultWithWarnings(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	c := sampleCheck("chk-2", time.Now())
	require.NoError(t, store.Insert(ctx, c))

	c.Status = StatusCompleted
	c.Result = &engine.Result{
		ApplicableClauses: []string{"fire-egress"},
		Violations: []bylaw.Violation{{
			ClauseID:       "fire-egress",
			Description:    "By-law 168: Exit capacity",
			Severity:       bylaw.SeverityCritical,
			RequiredAction: "Provide further means of egress.",
		}},
		Recommendations: []string{"Resolve 1 fire safety violation(s)."},
		ComplianceScore: 85,
		EvaluationErrors: []*bylaw.EvaluationError{{
			ClauseID: "broken",
			Stage:    "applicability",
			Detail:   "no such field",
		}},
		CorpusHash: "sha256:abc",
	}
	require.NoError(t, store.Update(ctx, c))

	got, err := store.Get(ctx, "chk-2")
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, 85.0, got.Result.ComplianceScore)
	assert.True(t, got.Result.HasWarnings())
	assert.Equal(t, c.Result, got.Result)
}

func TestSQLiteUpdateGuardsTerminalChecks(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	c := sampleCheck("chk-3", time.Now())
	require.NoError(t, store.Insert(ctx, c))

	c.Status = StatusFailed
	c.FailureReason = "engine unavailable"
	require.NoError(t, store.Update(ctx, c))

	c.Status = StatusCompleted
	assert.ErrorIs(t, store.Update(ctx, c), bylaw.ErrInvalidState)

	missing := sampleCheck("never-inserted", time.Now())
	assert.ErrorIs(t, store.Update(ctx, missing), bylaw.ErrNotFound)
}

func TestSQLiteListByProjectOrder(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"chk-a", "chk-b", "chk-c"} {
		c := sampleCheck(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Insert(ctx, c))
	}
	other := sampleCheck("chk-other", base)
	other.ProjectID = "prj-2"
	require.NoError(t, store.Insert(ctx, other))

	got, err := store.ListByProject(ctx, "prj-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "chk-c", got[0].ID)
	assert.Equal(t, "chk-b", got[1].ID)
	assert.Equal(t, "chk-a", got[2].ID)
}

func TestServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	svc := NewService(store, testEngine(t), discardLogger())

	c, err := svc.RunSpec(ctx, validSpec())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 85.0, got.Result.ComplianceScore)
}
