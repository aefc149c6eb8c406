package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

func sampleReport() *Report {
	return &Report{
		ID:                "rep-1",
		CheckID:           "chk-1",
		GeneratedDate:     time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		ProjectID:         "prj-1",
		ProjectName:       "Menara Test",
		BuildingType:      bylaw.BuildingCommercial,
		ComplianceScore:   77,
		ApplicableClauses: 9,
		TotalClauses:      16,
		Violations: []bylaw.Violation{
			{
				ClauseID:       "ubbl-168",
				Description:    "By-law 168: Staircase and exit capacity",
				Severity:       bylaw.SeverityCritical,
				RequiredAction: "Provide further means of egress: the minimum exit provision serves 350 persons but the design occupancy is 400.",
			},
			{
				ClauseID:       "ubbl-136",
				Description:    "By-law 136: Maximum compartment area in tall buildings",
				Severity:       bylaw.SeverityMajor,
				RequiredAction: "Subdivide the floor plate into fire compartments of not more than 4000 square metres; the largest uncompartmented area is 5000.",
			},
		},
		Recommendations: []string{"Resolve 2 fire safety violation(s): engage a qualified fire engineer."},
		Warnings:        1,
		CorpusVersion:   "1.2.0",
		CorpusHash:      "sha256:abc",
		ContentHash:     "sha256:def",
	}
}

func TestExportIsByteIdentical(t *testing.T) {
	r := sampleReport()
	first := Export(r)
	second := Export(r)
	assert.Equal(t, first, second)

	// A copied report exports the same bytes; export depends on content
	// only, never on identity or call order.
	clone := *r
	assert.Equal(t, first, Export(&clone))
}

func TestExportLayout(t *testing.T) {
	out := string(Export(sampleReport()))

	assert.Contains(t, out, "BUILDING COMPLIANCE REPORT")
	assert.Contains(t, out, "Report ID:       rep-1")
	assert.Contains(t, out, "Generated:       2026-08-02 09:30:00 UTC")
	assert.Contains(t, out, "Project:         prj-1 (Menara Test)")
	assert.Contains(t, out, "Compliance score:    77.0 / 100")
	assert.Contains(t, out, "Applicable clauses:  9 of 16 in corpus")
	assert.Contains(t, out, "Violations:          2 (1 critical, 1 major, 0 minor)")
	assert.Contains(t, out, "Unevaluable clauses: 1")
	assert.Contains(t, out, "[1] CRITICAL ubbl-168")
	assert.Contains(t, out, "[2] MAJOR    ubbl-136")
	assert.Contains(t, out, "1. Resolve 2 fire safety violation(s)")
	assert.Contains(t, out, "UNCERTIFIED - generated without a certification signature.")
	assert.Contains(t, out, "Corpus 1.2.0 sha256:abc | Content sha256:def | Format kanun-report/1")
}

func TestExportCleanReport(t *testing.T) {
	r := sampleReport()
	r.Violations = nil
	r.Recommendations = nil
	r.Warnings = 0
	r.ComplianceScore = 100

	out := string(Export(r))
	assert.Contains(t, out, "No violations detected.")
	assert.Contains(t, out, "Violations:          0 (0 critical, 0 major, 0 minor)")
	require.Contains(t, out, "RECOMMENDATIONS")
	assert.Contains(t, out, "None.")
}

func TestExportCertifiedFooter(t *testing.T) {
	r := sampleReport()
	r.CertifiedBy = "Jabatan Bomba"
	r.CertificationToken = "header.payload.signature"
	r.KeyFingerprint = "ed25519:0011223344556677"

	out := string(Export(r))
	assert.Contains(t, out, "Certified by:    Jabatan Bomba")
	assert.Contains(t, out, "Signing key:     ed25519:0011223344556677")
	assert.Contains(t, out, "Valid until:     no expiry")
	assert.Contains(t, out, "Token:           header.payload.signature")
	assert.False(t, strings.Contains(out, "UNCERTIFIED"))

	until := time.Date(2027, 8, 2, 9, 30, 0, 0, time.UTC)
	r.ValidUntil = &until
	out = string(Export(r))
	assert.Contains(t, out, "Valid until:     2027-08-02 09:30:00 UTC")
}
