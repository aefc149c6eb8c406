package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

func TestResolveIncludesUniversalClauses(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)
	resolver := NewResolver(testCorpus(t), env)

	applicable, evalErrs := resolver.Resolve(&bylaw.BuildingSpecification{
		ProjectID:      "prj-1",
		BuildingType:   bylaw.BuildingIndustrial,
		BuildingHeight: 6,
		FloorArea:      900,
		Occupancy:      10,
	})
	assert.Empty(t, evalErrs)
	require.Len(t, applicable, 1)
	assert.Equal(t, "gen-1", applicable[0].ID)
}

func TestResolveConditionalClauses(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)
	resolver := NewResolver(testCorpus(t), env)

	applicable, evalErrs := resolver.Resolve(&bylaw.BuildingSpecification{
		ProjectID:      "prj-2",
		BuildingType:   bylaw.BuildingCommercial,
		BuildingHeight: 20,
		FloorArea:      3000,
		Occupancy:      80,
	})
	assert.Empty(t, evalErrs)

	ids := make([]string, len(applicable))
	for i, c := range applicable {
		ids[i] = c.ID
	}
	assert.ElementsMatch(t, []string{"gen-1", "fire-compart", "fire-egress"}, ids)
}

func TestResolveFlagsBrokenPredicates(t *testing.T) {
	broken := clause("broken", "99", 9, bylaw.CategoryGeneral)
	broken.AppliesIf = "spec.no_such_field == 'x'"
	keep := clause("keep", "100", 9, bylaw.CategoryGeneral)

	corpus, err := bylaw.NewCorpus("test", "1.0.0", []string{"en"}, []*bylaw.Clause{broken, keep})
	require.NoError(t, err)
	env, err := NewEnv()
	require.NoError(t, err)
	resolver := NewResolver(corpus, env)

	applicable, evalErrs := resolver.Resolve(&bylaw.BuildingSpecification{
		ProjectID:      "prj-3",
		BuildingType:   bylaw.BuildingResidential,
		BuildingHeight: 5,
		FloorArea:      80,
		Occupancy:      4,
	})

	// The broken clause is excluded but never silently dropped.
	require.Len(t, applicable, 1)
	assert.Equal(t, "keep", applicable[0].ID)
	require.Len(t, evalErrs, 1)
	assert.Equal(t, "broken", evalErrs[0].ClauseID)
	assert.Equal(t, "applicability", evalErrs[0].Stage)
}
