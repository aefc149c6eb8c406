package engine

import (
	"fmt"
	"strings"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// descriptionLanguage is the language violation descriptions are rendered
// in. Corpus validation guarantees every clause carries content for every
// supported language, so the lookup cannot miss.
const descriptionLanguage = "en"

// Detector evaluates a specification against each applicable clause's rule
// predicate. Clauses without a rule are informational and never produce
// violations regardless of the specification.
type Detector struct {
	env *Env
}

// NewDetector creates a detector sharing the engine's CEL environment.
func NewDetector(env *Env) *Detector {
	return &Detector{env: env}
}

// Detect returns the violations found plus one evaluation error per clause
// whose rule could not be computed. A predicate failure is never treated as
// a pass: the clause is flagged and the remaining clauses still evaluate.
func (d *Detector) Detect(spec *bylaw.BuildingSpecification, applicable []*bylaw.Clause) ([]bylaw.Violation, []*bylaw.EvaluationError) {
	input := spec.Input()

	var (
		violations []bylaw.Violation
		evalErrs   []*bylaw.EvaluationError
	)
	for _, c := range applicable {
		if !c.HasRule() {
			continue
		}
		pass, err := d.env.EvalBool(c.Rule.Expr, input)
		if err != nil {
			evalErrs = append(evalErrs, &bylaw.EvaluationError{
				ClauseID: c.ID,
				Stage:    "evaluation",
				Detail:   err.Error(),
			})
			continue
		}
		if pass {
			continue
		}

		action, paramErr := d.requiredAction(c, input)
		if paramErr != nil {
			evalErrs = append(evalErrs, paramErr)
		}
		violations = append(violations, bylaw.Violation{
			ClauseID:       c.ID,
			Description:    describeViolation(c),
			Severity:       c.Rule.Severity,
			RequiredAction: action,
		})
	}
	return violations, evalErrs
}

// requiredAction renders the clause's remediation template. When the rule
// declares actual/required expressions the template is parameterized with
// the computed values; if those expressions fail the verbatim template is
// used and the failure is flagged, since the violation itself already stands.
func (d *Detector) requiredAction(c *bylaw.Clause, input map[string]any) (string, *bylaw.EvaluationError) {
	r := c.Rule
	if r.ActualExpr == "" || r.RequiredExpr == "" {
		return r.Remediation, nil
	}

	actual, errA := d.env.EvalNumber(r.ActualExpr, input)
	required, errR := d.env.EvalNumber(r.RequiredExpr, input)
	if errA != nil || errR != nil {
		detail := "remediation parameters: "
		if errA != nil {
			detail += errA.Error()
		} else {
			detail += errR.Error()
		}
		return r.Remediation, &bylaw.EvaluationError{
			ClauseID: c.ID,
			Stage:    "evaluation",
			Detail:   detail,
		}
	}
	return fmt.Sprintf(r.Remediation, required, actual), nil
}

// describeViolation builds the human-readable violation description from the
// clause's normative content.
func describeViolation(c *bylaw.Clause) string {
	ct, ok := c.ContentIn(descriptionLanguage)
	title := ct.Title
	if !ok || strings.TrimSpace(title) == "" {
		title = "requirement not satisfied"
	}
	return fmt.Sprintf("By-law %s: %s", c.Number, title)
}
