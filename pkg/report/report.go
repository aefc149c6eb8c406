// Package report assembles certified, exportable compliance reports from
// completed checks. A report is a point-in-time snapshot: it carries its own
// copy of the figures and never re-evaluates when the corpus moves on.
package report

import (
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Report is the immutable, exportable artifact derived from one completed
// compliance check.
type Report struct {
	ID            string    `json:"id"`
	CheckID       string    `json:"check_id"`
	GeneratedDate time.Time `json:"generated_date"`

	ProjectID    string             `json:"project_id"`
	ProjectName  string             `json:"project_name,omitempty"`
	BuildingType bylaw.BuildingType `json:"building_type"`

	ComplianceScore   float64           `json:"compliance_score"`
	ApplicableClauses int               `json:"applicable_clauses"`
	TotalClauses      int               `json:"total_clauses"`
	Violations        []bylaw.Violation `json:"violations"`
	Recommendations   []string          `json:"recommendations"`
	Warnings          int               `json:"warnings"`
	CorpusVersion     string            `json:"corpus_version"`
	CorpusHash        string            `json:"corpus_hash"`

	// Certification fields are optional; an uncertified report exports with
	// a fixed UNCERTIFIED footer.
	CertifiedBy        string     `json:"certified_by,omitempty"`
	CertificationToken string     `json:"certification_token,omitempty"`
	KeyFingerprint     string     `json:"key_fingerprint,omitempty"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`

	// ContentHash is the RFC 8785 canonical hash of the report body,
	// computed before certification fields are filled.
	ContentHash string `json:"content_hash"`
}

// Certified reports whether the report carries a certification token.
func (r *Report) Certified() bool { return r.CertificationToken != "" }
