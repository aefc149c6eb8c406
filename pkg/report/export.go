package report

import (
	"fmt"
	"strings"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Export layout version. Bump only with a documented format change; the
// export of a given report must stay byte-identical across releases that
// share a format version.
const exportFormat = "kanun-report/1"

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
	timestamp = "2006-01-02 15:04:05 UTC"
)

// Export renders the report in the stable plain-text layout. The output is
// a pure function of the report contents: exporting the same report twice
// yields byte-identical bytes.
func Export(r *Report) []byte {
	var b strings.Builder

	b.WriteString(heavyRule + "\n")
	b.WriteString("                         BUILDING COMPLIANCE REPORT\n")
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Report ID:       %s\n", r.ID)
	fmt.Fprintf(&b, "Check ID:        %s\n", r.CheckID)
	fmt.Fprintf(&b, "Generated:       %s\n", r.GeneratedDate.UTC().Format(timestamp))
	if r.ProjectName != "" {
		fmt.Fprintf(&b, "Project:         %s (%s)\n", r.ProjectID, r.ProjectName)
	} else {
		fmt.Fprintf(&b, "Project:         %s\n", r.ProjectID)
	}
	fmt.Fprintf(&b, "Building type:   %s\n", r.BuildingType)
	b.WriteString("\n")

	b.WriteString(lightRule + "\n")
	b.WriteString("SCORE SUMMARY\n")
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "Compliance score:    %.1f / 100\n", r.ComplianceScore)
	fmt.Fprintf(&b, "Applicable clauses:  %d of %d in corpus\n", r.ApplicableClauses, r.TotalClauses)
	fmt.Fprintf(&b, "Violations:          %d (%s)\n", len(r.Violations), severityBreakdown(r.Violations))
	fmt.Fprintf(&b, "Unevaluable clauses: %d\n", r.Warnings)
	b.WriteString("\n")

	b.WriteString(lightRule + "\n")
	b.WriteString("VIOLATIONS\n")
	b.WriteString(lightRule + "\n")
	if len(r.Violations) == 0 {
		b.WriteString("No violations detected.\n")
	}
	for i, v := range r.Violations {
		fmt.Fprintf(&b, "[%d] %-8s %s\n", i+1, strings.ToUpper(string(v.Severity)), v.ClauseID)
		fmt.Fprintf(&b, "    %s\n", v.Description)
		fmt.Fprintf(&b, "    Required action: %s\n", v.RequiredAction)
	}
	b.WriteString("\n")

	b.WriteString(lightRule + "\n")
	b.WriteString("RECOMMENDATIONS\n")
	b.WriteString(lightRule + "\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("None.\n")
	}
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	b.WriteString("\n")

	b.WriteString(lightRule + "\n")
	b.WriteString("CERTIFICATION\n")
	b.WriteString(lightRule + "\n")
	if r.Certified() {
		fmt.Fprintf(&b, "Certified by:    %s\n", r.CertifiedBy)
		fmt.Fprintf(&b, "Signing key:     %s\n", r.KeyFingerprint)
		if r.ValidUntil != nil {
			fmt.Fprintf(&b, "Valid until:     %s\n", r.ValidUntil.UTC().Format(timestamp))
		} else {
			b.WriteString("Valid until:     no expiry\n")
		}
		fmt.Fprintf(&b, "Token:           %s\n", r.CertificationToken)
	} else {
		b.WriteString("UNCERTIFIED - generated without a certification signature.\n")
	}

	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Corpus %s %s | Content %s | Format %s\n", r.CorpusVersion, r.CorpusHash, r.ContentHash, exportFormat)
	b.WriteString(heavyRule + "\n")

	return []byte(b.String())
}

// severityBreakdown renders "1 critical, 2 major, 0 minor" in fixed order.
func severityBreakdown(violations []bylaw.Violation) string {
	counts := map[bylaw.Severity]int{}
	for _, v := range violations {
		counts[v.Severity]++
	}
	return fmt.Sprintf("%d critical, %d major, %d minor",
		counts[bylaw.SeverityCritical], counts[bylaw.SeverityMajor], counts[bylaw.SeverityMinor])
}
