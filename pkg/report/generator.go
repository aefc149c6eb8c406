package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/check"
)

// CheckSource is the slice of the check repository the generator needs.
type CheckSource interface {
	Get(ctx context.Context, checkID string) (*check.ComplianceCheck, error)
}

// CertifyOptions requests certification of a generated report.
type CertifyOptions struct {
	// By is the certifying person or body. Empty means uncertified.
	By string
	// Validity bounds the certification; zero means no expiry.
	Validity time.Duration
}

// Generator assembles reports from completed checks.
type Generator struct {
	checks    CheckSource
	store     Store
	certifier *Certifier // nil disables certification
	total     int        // corpus size at generation time
	version   string     // corpus version at generation time
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
}

// NewGenerator wires a report generator. certifier may be nil when the
// deployment has no signing key; CertifyOptions are then rejected.
func NewGenerator(checks CheckSource, store Store, certifier *Certifier, corpus *bylaw.Corpus, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		checks:    checks,
		store:     store,
		certifier: certifier,
		total:     corpus.Len(),
		version:   corpus.Version(),
		logger:    logger,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock overrides the clock for testing.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// WithIDFunc overrides id generation for testing.
func (g *Generator) WithIDFunc(fn func() string) *Generator {
	g.newID = fn
	return g
}

// Generate snapshots a completed check into an immutable report. It fails
// with bylaw.ErrNotFound when the check is missing and bylaw.ErrInvalidState
// when the check has not completed.
func (g *Generator) Generate(ctx context.Context, checkID string, opts CertifyOptions) (*Report, error) {
	c, err := g.checks.Get(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if c.Status != check.StatusCompleted || c.Result == nil {
		return nil, bylaw.ErrInvalidState
	}

	r := &Report{
		ID:                g.newID(),
		CheckID:           c.ID,
		GeneratedDate:     g.clock().UTC().Truncate(time.Second),
		ProjectID:         c.ProjectID,
		ProjectName:       c.ProjectName,
		BuildingType:      c.BuildingType,
		ComplianceScore:   c.Result.ComplianceScore,
		ApplicableClauses: len(c.Result.ApplicableClauses),
		TotalClauses:      g.total,
		Violations:        c.Result.Violations,
		Recommendations:   c.Result.Recommendations,
		Warnings:          len(c.Result.EvaluationErrors),
		CorpusVersion:     g.version,
		CorpusHash:        c.Result.CorpusHash,
	}

	hash, err := contentHash(r)
	if err != nil {
		return nil, fmt.Errorf("report content hash: %w", err)
	}
	r.ContentHash = hash

	if opts.By != "" {
		if g.certifier == nil {
			return nil, fmt.Errorf("certification requested but no signing key is configured")
		}
		token, validUntil, err := g.certifier.Certify(r, opts.By, opts.Validity)
		if err != nil {
			return nil, err
		}
		r.CertifiedBy = opts.By
		r.CertificationToken = token
		r.KeyFingerprint = g.certifier.Fingerprint()
		r.ValidUntil = validUntil
	}

	if err := g.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	g.logger.Info("report generated",
		"report_id", r.ID,
		"check_id", r.CheckID,
		"score", r.ComplianceScore,
		"certified", r.Certified())
	return r, nil
}

// Get returns a previously generated report.
func (g *Generator) Get(ctx context.Context, reportID string) (*Report, error) {
	return g.store.Get(ctx, reportID)
}

// contentHash computes the RFC 8785 canonical hash of the report body with
// certification fields and the hash itself zeroed, so certification can sign
// the hash without changing it.
func contentHash(r *Report) (string, error) {
	body := *r
	body.CertifiedBy = ""
	body.CertificationToken = ""
	body.KeyFingerprint = ""
	body.ValidUntil = nil
	body.ContentHash = ""

	raw, err := json.Marshal(&body)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
