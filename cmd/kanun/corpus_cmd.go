package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

func runCorpusCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "verify":
		return runCorpusVerify(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown corpus subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, "Usage: kanun corpus <verify>")
		return 2
	}
}

// runCorpusVerify loads every bundle in the directory, which runs the full
// schema and cross-reference validation, and prints the snapshot identity.
func runCorpusVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("corpus verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var dir string
	cmd.StringVar(&dir, "dir", "corpus", "Directory containing corpus bundles")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	corpus, err := bylaw.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Corpus invalid: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Corpus:    %s\n", corpus.Name())
	fmt.Fprintf(stdout, "Version:   %s\n", corpus.Version())
	fmt.Fprintf(stdout, "Languages: %s\n", strings.Join(corpus.Languages(), ", "))
	fmt.Fprintf(stdout, "Clauses:   %d\n", corpus.Len())
	fmt.Fprintf(stdout, "Snapshot:  %s\n", corpus.SnapshotHash())
	fmt.Fprintln(stdout, "OK")
	return 0
}
