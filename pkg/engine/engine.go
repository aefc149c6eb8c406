package engine

import (
	"log/slog"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Result is the outcome of one evaluation: the applicable clause ids, the
// violations found, the aggregate score, recommendations, and any per-clause
// evaluation errors collected along the way. Every violation's clause id is
// guaranteed to appear in ApplicableClauses.
type Result struct {
	ApplicableClauses []string                 `json:"applicable_clauses"`
	Violations        []bylaw.Violation        `json:"violations"`
	Recommendations   []string                 `json:"recommendations"`
	ComplianceScore   float64                  `json:"compliance_score"`
	EvaluationErrors  []*bylaw.EvaluationError `json:"evaluation_errors,omitempty"`
	CorpusHash        string                   `json:"corpus_hash"`
}

// HasWarnings reports whether some clauses could not be evaluated.
func (r *Result) HasWarnings() bool { return len(r.EvaluationErrors) > 0 }

// Engine wires the resolver, detector and scorer over one corpus snapshot.
// It holds no per-check state and is safe for concurrent use.
type Engine struct {
	corpus   *bylaw.Corpus
	resolver *Resolver
	detector *Detector
	scorer   *Scorer
	logger   *slog.Logger
}

// New builds an engine over a corpus with the given scoring policy.
func New(corpus *bylaw.Corpus, policy *ScorePolicy, logger *slog.Logger) (*Engine, error) {
	if policy == nil {
		policy = DefaultScorePolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	return &Engine{
		corpus:   corpus,
		resolver: NewResolver(corpus, env),
		detector: NewDetector(env),
		scorer:   NewScorer(policy),
		logger:   logger,
	}, nil
}

// Corpus exposes the corpus snapshot the engine evaluates against.
func (e *Engine) Corpus() *bylaw.Corpus { return e.corpus }

// ApplicableClauses validates the specification and resolves the applicable
// clause set without running detection.
func (e *Engine) ApplicableClauses(spec *bylaw.BuildingSpecification) ([]*bylaw.Clause, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	applicable, _ := e.resolver.Resolve(spec)
	return applicable, nil
}

// Evaluate runs the full pipeline: validation, applicability resolution,
// violation detection and score aggregation. Evaluation errors do not abort
// the run; they ride along in the result so the caller can mark the check
// completed-with-warnings.
func (e *Engine) Evaluate(spec *bylaw.BuildingSpecification) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	applicable, resolveErrs := e.resolver.Resolve(spec)
	violations, detectErrs := e.detector.Detect(spec, applicable)
	score, recommendations := e.scorer.Score(applicable, violations)

	ids := make([]string, len(applicable))
	for i, c := range applicable {
		ids[i] = c.ID
	}

	evalErrs := append(resolveErrs, detectErrs...)
	if len(evalErrs) > 0 {
		e.logger.Warn("evaluation completed with warnings",
			"project_id", spec.ProjectID,
			"unevaluable_clauses", len(evalErrs))
	}
	e.logger.Debug("evaluation complete",
		"project_id", spec.ProjectID,
		"applicable", len(ids),
		"violations", len(violations),
		"score", score)

	return &Result{
		ApplicableClauses: ids,
		Violations:        violations,
		Recommendations:   recommendations,
		ComplianceScore:   score,
		EvaluationErrors:  evalErrs,
		CorpusHash:        e.corpus.SnapshotHash(),
	}, nil
}
