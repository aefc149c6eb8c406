// Package search provides full-text and categorical lookup over the clause
// corpus. It is read-only, pure, and independent of any compliance check.
package search

import (
	"context"
	"strings"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// Service answers clause lookups over one corpus snapshot. Because the
// corpus is immutable, results for a given query never change within a
// process lifetime, which is what makes the optional cache safe.
type Service struct {
	corpus *bylaw.Corpus
	cache  Cache // nil disables caching
}

// NewService creates a search service. cache may be nil.
func NewService(corpus *bylaw.Corpus, cache Cache) *Service {
	return &Service{corpus: corpus, cache: cache}
}

// Search returns clauses whose number, title or content contains the query,
// case-insensitively, in any loaded language. Results come back in corpus
// order. An empty query matches nothing.
func (s *Service) Search(ctx context.Context, query string) []*bylaw.Clause {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx, needle); ok {
			return s.resolveIDs(ids)
		}
	}

	var out []*bylaw.Clause
	for _, c := range s.corpus.Clauses() {
		if clauseMatches(c, needle) {
			out = append(out, c)
		}
	}

	if s.cache != nil {
		ids := make([]string, len(out))
		for i, c := range out {
			ids[i] = c.ID
		}
		s.cache.Set(ctx, needle, ids)
	}
	return out
}

// FilterBySection returns the clauses of one part of the by-laws.
func (s *Service) FilterBySection(partNumber int) []*bylaw.Clause {
	return s.corpus.ByPart(partNumber)
}

// FilterByCategory returns the clauses of one category.
func (s *Service) FilterByCategory(cat bylaw.Category) []*bylaw.Clause {
	return s.corpus.ByCategory(cat)
}

func (s *Service) resolveIDs(ids []string) []*bylaw.Clause {
	out := make([]*bylaw.Clause, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.corpus.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

func clauseMatches(c *bylaw.Clause, needle string) bool {
	if strings.Contains(strings.ToLower(c.Number), needle) {
		return true
	}
	for _, ct := range c.Content {
		if strings.Contains(strings.ToLower(ct.Title), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(ct.Text), needle) {
			return true
		}
	}
	return false
}
