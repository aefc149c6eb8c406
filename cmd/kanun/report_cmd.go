package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/check"
	"github.com/bina-labs/kanun/pkg/report"
)

// runReportCmd runs a one-shot check and writes the plain-text report
// export. With --secret the report is certified before export.
func runReportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("report", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		specPath     string
		corpusDir    string
		policyPath   string
		outPath      string
		certifiedBy  string
		validityDays int
		secret       string
	)
	cmd.StringVar(&specPath, "spec", "", "Path to the building specification JSON (REQUIRED)")
	cmd.StringVar(&corpusDir, "corpus", "corpus", "Directory containing corpus bundles")
	cmd.StringVar(&policyPath, "policy", "", "YAML scoring policy override")
	cmd.StringVar(&outPath, "out", "", "Write the export here instead of stdout")
	cmd.StringVar(&certifiedBy, "certified-by", "", "Certifying person or body")
	cmd.IntVar(&validityDays, "validity-days", 0, "Certification validity in days (0 = no expiry)")
	cmd.StringVar(&secret, "secret", os.Getenv("CERT_SECRET"), "Certification key secret")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if specPath == "" {
		fmt.Fprintln(stderr, "Error: --spec is required")
		cmd.Usage()
		return 2
	}
	if certifiedBy != "" && secret == "" {
		fmt.Fprintln(stderr, "Error: --certified-by requires --secret or CERT_SECRET")
		return 2
	}

	c, err := runLocalCheck(specPath, corpusDir, policyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Check failed: %v\n", err)
		return 1
	}

	var certifier *report.Certifier
	if secret != "" {
		keys, err := report.NewDerivedKeyProvider([]byte(secret))
		if err != nil {
			fmt.Fprintf(stderr, "Key derivation failed: %v\n", err)
			return 1
		}
		certifier = report.NewCertifier(keys)
	}

	corpus, err := bylaw.LoadDir(corpusDir)
	if err != nil {
		fmt.Fprintf(stderr, "Corpus load failed: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := report.NewGenerator(staticCheck{c}, report.NewMemoryStore(), certifier, corpus, logger)

	rep, err := gen.Generate(context.Background(), c.ID, report.CertifyOptions{
		By:       certifiedBy,
		Validity: time.Duration(validityDays) * 24 * time.Hour,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Report generation failed: %v\n", err)
		return 1
	}

	data := report.Export(rep)
	if outPath == "" {
		_, _ = stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "Write failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Report written to %s (%s)\n", outPath, rep.ContentHash)
	return 0
}

// staticCheck serves a single pre-run check to the generator.
type staticCheck struct {
	c *check.ComplianceCheck
}

func (s staticCheck) Get(_ context.Context, checkID string) (*check.ComplianceCheck, error) {
	if checkID != s.c.ID {
		return nil, bylaw.ErrNotFound
	}
	return s.c, nil
}
