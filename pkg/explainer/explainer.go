// Package explainer holds the multilingual supplementary material attached to
// clauses: simplified narratives, worked examples, known violations, best
// practices, case studies and calculators. Explainers are educational content,
// distinct from a clause's normative text, and their absence is a normal state.
package explainer

// Example is one worked illustration of a clause.
type Example struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Compliant   bool   `json:"compliant"`
}

// CommonViolation describes a failure pattern seen in practice.
type CommonViolation struct {
	Description string   `json:"description"`
	Causes      []string `json:"causes,omitempty"`
	Avoidance   []string `json:"avoidance,omitempty"`
	Penalty     string   `json:"penalty,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// BestPractice describes a recommended approach to satisfying a clause.
type BestPractice struct {
	Title    string   `json:"title"`
	Steps    []string `json:"steps,omitempty"`
	Benefits []string `json:"benefits,omitempty"`
	CostNote string   `json:"cost_note,omitempty"`
	TimeNote string   `json:"time_note,omitempty"`
}

// CaseStudy narrates a real project's encounter with a clause.
type CaseStudy struct {
	Title     string   `json:"title"`
	Challenge string   `json:"challenge"`
	Solution  string   `json:"solution"`
	Outcome   string   `json:"outcome"`
	Lessons   []string `json:"lessons,omitempty"`
}

// Calculator describes a derived numeric check a clause needs, as a named
// formula with labelled inputs. The formula itself is a CEL expression over
// the inputs; rendering and interactive use are the caller's concern.
type Calculator struct {
	Name    string            `json:"name"`
	Formula string            `json:"formula"`
	Inputs  map[string]string `json:"inputs,omitempty"` // input name -> label
	Unit    string            `json:"unit,omitempty"`
}

// Explainer is one clause's supplementary material for one language.
type Explainer struct {
	ClauseID      string            `json:"clause_id"`
	Language      string            `json:"language"`
	Simplified    string            `json:"simplified"`
	Detailed      string            `json:"detailed,omitempty"`
	Examples      []Example         `json:"examples,omitempty"`
	Violations    []CommonViolation `json:"common_violations,omitempty"`
	BestPractices []BestPractice    `json:"best_practices,omitempty"`
	CaseStudies   []CaseStudy       `json:"case_studies,omitempty"`
	Calculators   []Calculator      `json:"calculators,omitempty"`
}
