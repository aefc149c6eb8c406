// Package bylaw defines the clause corpus: the versioned, read-only set of
// building-regulation provisions the compliance engine evaluates against.
package bylaw

import "fmt"

// Category classifies a clause by regulatory concern.
type Category string

const (
	CategoryFireSafety    Category = "fire_safety"
	CategoryStructural    Category = "structural"
	CategorySubmission    Category = "submission"
	CategoryAccessibility Category = "accessibility"
	CategoryEnvironmental Category = "environmental"
	CategorySpatial       Category = "spatial"
	CategoryServices      Category = "services"
	CategoryGeneral       Category = "general"
)

// Categories lists every valid category, in stable order.
var Categories = []Category{
	CategoryFireSafety,
	CategoryStructural,
	CategorySubmission,
	CategoryAccessibility,
	CategoryEnvironmental,
	CategorySpatial,
	CategoryServices,
	CategoryGeneral,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Priority is the corpus-classification rank of a clause. It is a static
// attribute of the provision itself, never re-derived per check.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Severity grades a detected violation.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities for sorting, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	}
	return 3
}

// Content is one language's rendering of a clause.
type Content struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Rule is a clause's evaluation predicate. Expr is a CEL expression over the
// building specification that must evaluate to true for the clause to pass.
// Clauses without a Rule are informational and never produce violations.
type Rule struct {
	// Expr is the pass condition. A false result is a violation.
	Expr string `json:"expr"`
	// Severity is the configured grade for this failure mode.
	Severity Severity `json:"severity"`
	// Remediation is the required-action template. When ActualExpr and
	// RequiredExpr are present it is rendered with fmt as
	// Remediation(required, actual); otherwise it is used verbatim.
	Remediation string `json:"remediation"`
	// ActualExpr, RequiredExpr optionally compute the observed and required
	// numeric values that parameterize the remediation text.
	ActualExpr   string `json:"actual_expr,omitempty"`
	RequiredExpr string `json:"required_expr,omitempty"`
}

// Clause is one regulatory provision.
type Clause struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	PartNumber int    `json:"part_number"`
	PartTitle  string `json:"part_title"`
	// Content maps BCP-47 language codes ("en", "ms") to localized text.
	Content  map[string]Content `json:"content"`
	Category Category           `json:"category"`
	Tags     []string           `json:"tags,omitempty"`
	Priority Priority           `json:"priority"`
	// Complexity grades implementation effort, 1 (trivial) to 5 (specialist).
	Complexity int `json:"complexity"`
	// AppliesIf is the applicability predicate: a CEL expression over the
	// building specification. Empty means universally applicable.
	AppliesIf string `json:"applies_if,omitempty"`
	// Rule is the optional evaluation predicate.
	Rule                *Rule `json:"rule,omitempty"`
	RequiresCalculation bool  `json:"requires_calculation,omitempty"`
}

// HasRule reports whether the clause carries an evaluation predicate.
func (c *Clause) HasRule() bool {
	return c.Rule != nil && c.Rule.Expr != ""
}

// Universal reports whether the clause applies to every specification.
func (c *Clause) Universal() bool {
	return c.AppliesIf == ""
}

// ContentIn returns the clause content for a language code.
func (c *Clause) ContentIn(lang string) (Content, bool) {
	ct, ok := c.Content[lang]
	return ct, ok
}

// validate checks structural invariants on a loaded clause.
func (c *Clause) validate(languages []string) error {
	if c.ID == "" {
		return fmt.Errorf("clause with number %q has empty id", c.Number)
	}
	if c.Number == "" {
		return fmt.Errorf("clause %s: empty number", c.ID)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("clause %s: unknown category %q", c.ID, c.Category)
	}
	if !c.Priority.Valid() {
		return fmt.Errorf("clause %s: unknown priority %q", c.ID, c.Priority)
	}
	if c.Complexity < 1 || c.Complexity > 5 {
		return fmt.Errorf("clause %s: complexity %d out of range 1..5", c.ID, c.Complexity)
	}
	for _, lang := range languages {
		if _, ok := c.Content[lang]; !ok {
			return fmt.Errorf("clause %s: missing %s content", c.ID, lang)
		}
	}
	if c.Rule != nil {
		if c.Rule.Expr == "" {
			return fmt.Errorf("clause %s: rule present but expr is empty", c.ID)
		}
		if !c.Rule.Severity.Valid() {
			return fmt.Errorf("clause %s: unknown rule severity %q", c.ID, c.Rule.Severity)
		}
		if c.Rule.Remediation == "" {
			return fmt.Errorf("clause %s: rule has no remediation", c.ID)
		}
		if c.Rule.ActualExpr != "" && c.Rule.RequiredExpr != "" {
			if err := validateRemediationTemplate(c.Rule.Remediation); err != nil {
				return fmt.Errorf("clause %s: remediation template: %w", c.ID, err)
			}
		}
	}
	return nil
}

// validateRemediationTemplate checks a parameterized remediation string. The
// detector renders it with the required and actual values as two floats, so
// the template must carry exactly two numeric verbs and no stray percent
// signs; a literal percent must be written %%.
func validateRemediationTemplate(tmpl string) error {
	verbs := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '%' {
			i++
			continue
		}
		j := i + 1
		for j < len(tmpl) && (tmpl[j] == '.' || tmpl[j] == '+' || tmpl[j] == '-' ||
			tmpl[j] == '#' || tmpl[j] == ' ' || (tmpl[j] >= '0' && tmpl[j] <= '9')) {
			j++
		}
		if j >= len(tmpl) {
			return fmt.Errorf("stray %% at end of template")
		}
		switch tmpl[j] {
		case 'f', 'e', 'g', 'v':
			verbs++
		default:
			return fmt.Errorf("verb %%%c is not a numeric verb", tmpl[j])
		}
		i = j
	}
	if verbs != 2 {
		return fmt.Errorf("expected exactly 2 numeric verbs for the required and actual values, found %d", verbs)
	}
	return nil
}
