//go:build property
// +build property

// Property-based tests for the evaluation pipeline: score bounds,
// determinism, referential integrity and severity monotonicity across
// randomly generated building specifications.
package engine_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
)

func propClause(id, number string, part int, cat bylaw.Category) *bylaw.Clause {
	return &bylaw.Clause{
		ID:         id,
		Number:     number,
		PartNumber: part,
		PartTitle:  "Part",
		Content: map[string]bylaw.Content{
			"en": {Title: "Clause " + number, Text: "Text of clause " + number + "."},
		},
		Category:   cat,
		Priority:   bylaw.PriorityMedium,
		Complexity: 2,
	}
}

// propEngine builds an engine whose rules are threshold checks on the
// specification fields, so violation counts grow monotonically with the
// inputs.
func propEngine(t *testing.T) *engine.Engine {
	t.Helper()

	general := propClause("gen", "1", 1, bylaw.CategoryGeneral)

	small := propClause("occ-100", "10", 7, bylaw.CategoryFireSafety)
	small.Rule = &bylaw.Rule{
		Expr:        "spec.occupancy <= 100",
		Severity:    bylaw.SeverityMinor,
		Remediation: "Review the exit layout.",
	}
	medium := propClause("occ-200", "11", 7, bylaw.CategoryFireSafety)
	medium.Rule = &bylaw.Rule{
		Expr:        "spec.occupancy <= 200",
		Severity:    bylaw.SeverityMajor,
		Remediation: "Add an exit staircase.",
	}
	large := propClause("occ-300", "12", 7, bylaw.CategoryFireSafety)
	large.Rule = &bylaw.Rule{
		Expr:        "spec.occupancy <= 300",
		Severity:    bylaw.SeverityCritical,
		Remediation: "Rework the egress design.",
	}
	tall := propClause("height-18", "13", 7, bylaw.CategoryFireSafety)
	tall.AppliesIf = "spec.building_height >= 18.0"
	tall.Rule = &bylaw.Rule{
		Expr:        "spec.floor_area <= 4000.0",
		Severity:    bylaw.SeverityMajor,
		Remediation: "Compartment the floor plate.",
	}

	corpus, err := bylaw.NewCorpus("prop", "1.0.0", []string{"en"},
		[]*bylaw.Clause{general, small, medium, large, tall})
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(corpus, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func genSpec() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("residential", "commercial", "industrial", "institutional", "mixed-use"),
		gen.Float64Range(0.5, 300),
		gen.Float64Range(10, 50000),
		gen.IntRange(0, 5000),
	).Map(func(vals []interface{}) *bylaw.BuildingSpecification {
		return &bylaw.BuildingSpecification{
			ProjectID:      "prop-prj",
			BuildingType:   bylaw.BuildingType(vals[0].(string)),
			BuildingHeight: vals[1].(float64),
			FloorArea:      vals[2].(float64),
			Occupancy:      vals[3].(int),
		}
	})
}

func TestScoreAlwaysInBounds(t *testing.T) {
	eng := propEngine(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("compliance score stays within 0..100", prop.ForAll(
		func(spec *bylaw.BuildingSpecification) bool {
			result, err := eng.Evaluate(spec)
			if err != nil {
				return false
			}
			return result.ComplianceScore >= 0 && result.ComplianceScore <= 100
		},
		genSpec(),
	))
	properties.TestingRun(t)
}

func TestEvaluationIsDeterministic(t *testing.T) {
	eng := propEngine(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same spec, same corpus, same result", prop.ForAll(
		func(spec *bylaw.BuildingSpecification) bool {
			first, err1 := eng.Evaluate(spec)
			second, err2 := eng.Evaluate(spec)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			if first.ComplianceScore != second.ComplianceScore {
				return false
			}
			if len(first.Violations) != len(second.Violations) {
				return false
			}
			for i := range first.Violations {
				if first.Violations[i] != second.Violations[i] {
					return false
				}
			}
			return true
		},
		genSpec(),
	))
	properties.TestingRun(t)
}

func TestViolationsReferenceApplicableClauses(t *testing.T) {
	eng := propEngine(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every violation comes from an applicable clause", prop.ForAll(
		func(spec *bylaw.BuildingSpecification) bool {
			result, err := eng.Evaluate(spec)
			if err != nil {
				return false
			}
			applicable := make(map[string]bool, len(result.ApplicableClauses))
			for _, id := range result.ApplicableClauses {
				applicable[id] = true
			}
			for _, v := range result.Violations {
				if !applicable[v.ClauseID] {
					return false
				}
			}
			return true
		},
		genSpec(),
	))
	properties.TestingRun(t)
}

func TestScoreMonotoneInOccupancy(t *testing.T) {
	eng := propEngine(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("raising occupancy never raises the score", prop.ForAll(
		func(base *bylaw.BuildingSpecification, extra int) bool {
			higher := *base
			higher.Occupancy = base.Occupancy + extra

			lowResult, err := eng.Evaluate(base)
			if err != nil {
				return false
			}
			highResult, err := eng.Evaluate(&higher)
			if err != nil {
				return false
			}
			return highResult.ComplianceScore <= lowResult.ComplianceScore
		},
		genSpec(),
		gen.IntRange(0, 1000),
	))
	properties.TestingRun(t)
}
