package engine

import (
	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Resolver selects the subset of clauses that apply to a building
// specification. It is pure: the same specification against the same corpus
// snapshot always yields the same clause set.
type Resolver struct {
	corpus *bylaw.Corpus
	env    *Env
}

// NewResolver creates a resolver over a corpus.
func NewResolver(corpus *bylaw.Corpus, env *Env) *Resolver {
	return &Resolver{corpus: corpus, env: env}
}

// Resolve returns the applicable clauses in corpus order, plus one
// evaluation error per clause whose applicability predicate could not be
// computed. A failed predicate excludes the clause from the applicable set;
// the error flags it so it is never silently dropped. A specification that
// matches no conditional clause still gets the universal set.
func (r *Resolver) Resolve(spec *bylaw.BuildingSpecification) ([]*bylaw.Clause, []*bylaw.EvaluationError) {
	input := spec.Input()

	var (
		applicable []*bylaw.Clause
		evalErrs   []*bylaw.EvaluationError
	)
	for _, c := range r.corpus.Clauses() {
		if c.Universal() {
			applicable = append(applicable, c)
			continue
		}
		ok, err := r.env.EvalBool(c.AppliesIf, input)
		if err != nil {
			evalErrs = append(evalErrs, &bylaw.EvaluationError{
				ClauseID: c.ID,
				Stage:    "applicability",
				Detail:   err.Error(),
			})
			continue
		}
		if ok {
			applicable = append(applicable, c)
		}
	}
	return applicable, evalErrs
}
