package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/search"
)

func runSearchCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("search", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		corpusDir string
		category  string
		section   int
		lang      string
	)
	cmd.StringVar(&corpusDir, "corpus", "corpus", "Directory containing corpus bundles")
	cmd.StringVar(&category, "category", "", "Filter by category instead of text search")
	cmd.IntVar(&section, "section", 0, "Filter by part number instead of text search")
	cmd.StringVar(&lang, "lang", "en", "Language for clause titles")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	corpus, err := bylaw.LoadDir(corpusDir)
	if err != nil {
		fmt.Fprintf(stderr, "Corpus load failed: %v\n", err)
		return 1
	}
	svc := search.NewService(corpus, search.NewMemoryCache())

	var results []*bylaw.Clause
	switch {
	case category != "":
		cat := bylaw.Category(category)
		if !cat.Valid() {
			fmt.Fprintf(stderr, "Unknown category: %s\n", category)
			return 2
		}
		results = svc.FilterByCategory(cat)
	case section != 0:
		results = svc.FilterBySection(section)
	default:
		query := strings.Join(cmd.Args(), " ")
		if query == "" {
			fmt.Fprintln(stderr, "Usage: kanun search [flags] <query>")
			return 2
		}
		results = svc.Search(context.Background(), query)
	}

	if len(results) == 0 {
		fmt.Fprintln(stdout, "No clauses found.")
		return 0
	}
	for _, c := range results {
		title := ""
		if content, ok := c.ContentIn(lang); ok {
			title = content.Title
		}
		fmt.Fprintf(stdout, "%-12s %-10s %-18s %s\n", c.ID, c.Number, c.Category, title)
	}
	fmt.Fprintf(stdout, "\n%d clause(s)\n", len(results))
	return 0
}
