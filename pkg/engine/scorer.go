package engine

import (
	"fmt"
	"sort"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// ScorePolicy holds the tunable scoring knobs: per-severity deductions and
// per-category recommendation templates. It is configuration, not engine
// logic, so deployments can adjust weighting without touching the detector.
type ScorePolicy struct {
	Weights         map[bylaw.Severity]float64 `yaml:"weights" json:"weights"`
	Recommendations map[bylaw.Category]string  `yaml:"recommendations" json:"recommendations"`
}

// DefaultScorePolicy returns the stock weighting: critical 15, major 8,
// minor 3, floored at zero.
func DefaultScorePolicy() *ScorePolicy {
	return &ScorePolicy{
		Weights: map[bylaw.Severity]float64{
			bylaw.SeverityCritical: 15,
			bylaw.SeverityMajor:    8,
			bylaw.SeverityMinor:    3,
		},
		Recommendations: map[bylaw.Category]string{
			bylaw.CategoryFireSafety:    "Resolve %d fire safety violation(s): engage a qualified fire engineer and revise the active and passive fire protection design before resubmission.",
			bylaw.CategoryStructural:    "Resolve %d structural violation(s): have a professional engineer re-verify the structural design calculations.",
			bylaw.CategorySubmission:    "Resolve %d submission violation(s): complete the outstanding plan and form requirements before lodging with the authority.",
			bylaw.CategoryAccessibility: "Resolve %d accessibility violation(s): rework access routes and facilities to meet barrier-free requirements.",
			bylaw.CategoryEnvironmental: "Resolve %d environmental violation(s): revise ventilation, lighting or drainage provisions to the stated minimums.",
			bylaw.CategorySpatial:       "Resolve %d spatial violation(s): adjust room dimensions, open space or setbacks to the stated minimums.",
			bylaw.CategoryServices:      "Resolve %d building services violation(s): review mechanical, electrical and sanitary provisions with the services consultant.",
			bylaw.CategoryGeneral:       "Resolve %d general violation(s): review the flagged by-laws with the project's principal submitting person.",
		},
	}
}

// Validate checks that the policy covers every severity and category.
func (p *ScorePolicy) Validate() error {
	for _, s := range []bylaw.Severity{bylaw.SeverityMinor, bylaw.SeverityMajor, bylaw.SeverityCritical} {
		w, ok := p.Weights[s]
		if !ok {
			return fmt.Errorf("score policy: no weight for severity %s", s)
		}
		if w < 0 {
			return fmt.Errorf("score policy: negative weight for severity %s", s)
		}
	}
	for _, c := range bylaw.Categories {
		if p.Recommendations[c] == "" {
			return fmt.Errorf("score policy: no recommendation template for category %s", c)
		}
	}
	return nil
}

// Scorer converts a violation set into a compliance score and
// recommendations.
type Scorer struct {
	policy *ScorePolicy
}

// NewScorer creates a scorer with the given policy.
func NewScorer(policy *ScorePolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Score starts at 100, subtracts the configured weight per violation and
// floors at zero. Recommendations carry one entry per clause category with
// at least one violation, ordered by the most severe violation present in
// that category, most severe first; ties break on category name so output
// is reproducible.
func (s *Scorer) Score(applicable []*bylaw.Clause, violations []bylaw.Violation) (float64, []string) {
	if len(violations) == 0 {
		return 100, nil
	}

	categoryOf := make(map[string]bylaw.Category, len(applicable))
	for _, c := range applicable {
		categoryOf[c.ID] = c.Category
	}

	score := 100.0
	type group struct {
		count int
		worst bylaw.Severity
	}
	groups := make(map[bylaw.Category]*group)
	for _, v := range violations {
		score -= s.policy.Weights[v.Severity]

		cat := categoryOf[v.ClauseID]
		g, ok := groups[cat]
		if !ok {
			g = &group{worst: v.Severity}
			groups[cat] = g
		}
		g.count++
		if v.Severity.Rank() < g.worst.Rank() {
			g.worst = v.Severity
		}
	}
	if score < 0 {
		score = 0
	}

	cats := make([]bylaw.Category, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		gi, gj := groups[cats[i]], groups[cats[j]]
		if gi.worst.Rank() != gj.worst.Rank() {
			return gi.worst.Rank() < gj.worst.Rank()
		}
		return cats[i] < cats[j]
	})

	recs := make([]string, 0, len(cats))
	for _, cat := range cats {
		recs = append(recs, fmt.Sprintf(s.policy.Recommendations[cat], groups[cat].count))
	}
	return score, recs
}
