package check

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()

	egress := &bylaw.Clause{
		ID:         "fire-egress",
		Number:     "168",
		PartNumber: 7,
		PartTitle:  "Fire Requirements",
		Content: map[string]bylaw.Content{
			"en": {Title: "Exit capacity", Text: "Exits must serve the design occupancy."},
		},
		Category:   bylaw.CategoryFireSafety,
		Priority:   bylaw.PriorityCritical,
		Complexity: 4,
		AppliesIf:  "spec.occupancy >= 50",
		Rule: &bylaw.Rule{
			Expr:        "spec.occupancy <= 350",
			Severity:    bylaw.SeverityCritical,
			Remediation: "Provide further means of egress.",
		},
	}
	corpus, err := bylaw.NewCorpus("Test By-Laws", "1.0.0", []string{"en"}, []*bylaw.Clause{egress})
	require.NoError(t, err)
	eng, err := engine.New(corpus, nil, discardLogger())
	require.NoError(t, err)
	return eng
}

func validSpec() *bylaw.BuildingSpecification {
	return &bylaw.BuildingSpecification{
		ProjectID:      "prj-1",
		ProjectName:    "Menara Test",
		BuildingType:   bylaw.BuildingCommercial,
		BuildingHeight: 45,
		FloorArea:      5000,
		Occupancy:      400,
	}
}

func TestCreateValidatesBeforePersisting(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, testEngine(t), discardLogger())

	_, err := svc.Create(context.Background(), &bylaw.BuildingSpecification{})
	require.Error(t, err)

	var verr *bylaw.ValidationError
	assert.ErrorAs(t, err, &verr)

	// Nothing reached the store.
	checks, err := store.ListByProject(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, checks)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, testEngine(t), discardLogger())

	c, err := svc.Create(ctx, validSpec())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, c.Status)
	assert.False(t, c.CheckDate.IsZero())
	assert.Nil(t, c.Result)

	done, err := svc.Run(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, 85.0, done.Result.ComplianceScore)
	require.Len(t, done.Result.Violations, 1)
	assert.Equal(t, "fire-egress", done.Result.Violations[0].ClauseID)

	// A terminal check cannot be run again.
	_, err = svc.Run(ctx, c.ID)
	assert.ErrorIs(t, err, bylaw.ErrInvalidState)

	// Nor mutated through the store.
	done.FailureReason = "tampered"
	assert.ErrorIs(t, store.Update(ctx, done), bylaw.ErrInvalidState)
}

func TestRunUnknownCheck(t *testing.T) {
	svc := NewService(NewMemoryStore(), testEngine(t), discardLogger())
	_, err := svc.Run(context.Background(), "no-such-check")
	assert.ErrorIs(t, err, bylaw.ErrNotFound)
}

func TestRunSpecSingleCall(t *testing.T) {
	svc := NewService(NewMemoryStore(), testEngine(t), discardLogger())
	c, err := svc.RunSpec(context.Background(), validSpec())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)
	require.NotNil(t, c.Result)
}

func TestListByProjectNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var seq int
	svc := NewService(store, testEngine(t), discardLogger()).
		WithClock(func() time.Time {
			seq++
			return now.Add(time.Duration(seq) * time.Hour)
		})

	first, err := svc.RunSpec(ctx, validSpec())
	require.NoError(t, err)
	second, err := svc.RunSpec(ctx, validSpec())
	require.NoError(t, err)

	history, err := svc.ListByProject(ctx, "prj-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	other, err := svc.ListByProject(ctx, "prj-other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestConcurrentRunsProduceDistinctChecks(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), testEngine(t), discardLogger())

	const n = 8
	results := make([]*ComplianceCheck, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RunSpec(ctx, validSpec())
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, StatusCompleted, results[i].Status)
		assert.False(t, seen[results[i].ID], "check id %s reused", results[i].ID)
		seen[results[i].ID] = true
	}
}

func TestMemoryStoreClonesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, testEngine(t), discardLogger())

	c, err := svc.RunSpec(ctx, validSpec())
	require.NoError(t, err)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	got.Status = StatusPending
	got.Result = nil

	again, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	assert.NotNil(t, again.Result)
}
