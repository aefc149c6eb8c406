package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/check"
	"github.com/bina-labs/kanun/pkg/config"
	"github.com/bina-labs/kanun/pkg/engine"
)

// runCheckCmd evaluates a building specification file against the corpus
// without going through the server. Results are not persisted.
func runCheckCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("check", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		specPath   string
		corpusDir  string
		policyPath string
		jsonOutput bool
	)
	cmd.StringVar(&specPath, "spec", "", "Path to the building specification JSON (REQUIRED)")
	cmd.StringVar(&corpusDir, "corpus", "corpus", "Directory containing corpus bundles")
	cmd.StringVar(&policyPath, "policy", "", "YAML scoring policy override")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the full check as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if specPath == "" {
		fmt.Fprintln(stderr, "Error: --spec is required")
		cmd.Usage()
		return 2
	}

	c, err := runLocalCheck(specPath, corpusDir, policyPath)
	if err != nil {
		fmt.Fprintf(stderr, "Check failed: %v\n", err)
		return 1
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(c)
	} else {
		printCheckSummary(stdout, c)
	}
	if c.Status == check.StatusFailed {
		return 1
	}
	return 0
}

// runLocalCheck wires a one-shot in-memory pipeline for CLI use.
func runLocalCheck(specPath, corpusDir, policyPath string) (*check.ComplianceCheck, error) {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return nil, err
	}
	var spec bylaw.BuildingSpecification
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse spec %s: %w", specPath, err)
	}

	corpus, err := bylaw.LoadDir(corpusDir)
	if err != nil {
		return nil, err
	}
	policy, err := config.LoadScorePolicy(policyPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(corpus, policy, logger)
	if err != nil {
		return nil, err
	}
	svc := check.NewService(check.NewMemoryStore(), eng, logger)
	return svc.RunSpec(context.Background(), &spec)
}

func printCheckSummary(w io.Writer, c *check.ComplianceCheck) {
	fmt.Fprintf(w, "Check %s: %s\n", c.ID, c.Status)
	if c.Status == check.StatusFailed {
		fmt.Fprintf(w, "  reason: %s\n", c.FailureReason)
		return
	}
	r := c.Result
	fmt.Fprintf(w, "  project:    %s (%s)\n", c.ProjectName, c.ProjectID)
	fmt.Fprintf(w, "  score:      %.1f / 100\n", r.ComplianceScore)
	fmt.Fprintf(w, "  applicable: %d clauses\n", len(r.ApplicableClauses))
	fmt.Fprintf(w, "  violations: %d\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(w, "    [%s] %s: %s\n", v.Severity, v.ClauseID, v.Description)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  recommend:  %s\n", rec)
	}
	if r.HasWarnings() {
		fmt.Fprintf(w, "  warnings:   %d clause(s) could not be evaluated\n", len(r.EvaluationErrors))
	}
}
