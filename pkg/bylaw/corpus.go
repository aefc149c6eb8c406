package bylaw

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
)

// Corpus is the full clause set loaded at process start. It is read-only
// after construction and safe for concurrent use without locking.
type Corpus struct {
	name     string
	version  string
	langs    []string
	clauses  []*Clause
	byID     map[string]*Clause
	snapshot string
}

// NewCorpus builds a corpus from validated clauses. Clauses are held in a
// stable order (by part number, then clause number, then id) so that every
// derived artifact is reproducible.
func NewCorpus(name, version string, languages []string, clauses []*Clause) (*Corpus, error) {
	byID := make(map[string]*Clause, len(clauses))
	for _, c := range clauses {
		if err := c.validate(languages); err != nil {
			return nil, err
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate clause id %s", c.ID)
		}
		byID[c.ID] = c
	}

	ordered := make([]*Clause, len(clauses))
	copy(ordered, clauses)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].PartNumber != ordered[j].PartNumber {
			return ordered[i].PartNumber < ordered[j].PartNumber
		}
		if ordered[i].Number != ordered[j].Number {
			return ordered[i].Number < ordered[j].Number
		}
		return ordered[i].ID < ordered[j].ID
	})

	snap, err := snapshotHash(version, ordered)
	if err != nil {
		return nil, fmt.Errorf("corpus snapshot hash: %w", err)
	}

	return &Corpus{
		name:     name,
		version:  version,
		langs:    languages,
		clauses:  ordered,
		byID:     byID,
		snapshot: snap,
	}, nil
}

// snapshotHash returns the SHA-256 of the RFC 8785 canonical JSON of the
// corpus content. Checks record this hash so a result can always be traced
// to the exact corpus it ran against.
func snapshotHash(version string, clauses []*Clause) (string, error) {
	raw, err := json.Marshal(struct {
		Version string    `json:"version"`
		Clauses []*Clause `json:"clauses"`
	}{Version: version, Clauses: clauses})
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

// Name returns the corpus bundle name.
func (c *Corpus) Name() string { return c.name }

// Version returns the corpus semantic version.
func (c *Corpus) Version() string { return c.version }

// Languages returns the language codes every clause carries content for.
func (c *Corpus) Languages() []string { return c.langs }

// SnapshotHash returns the content hash of this corpus snapshot.
func (c *Corpus) SnapshotHash() string { return c.snapshot }

// Len returns the number of clauses in the corpus.
func (c *Corpus) Len() int { return len(c.clauses) }

// Clauses returns all clauses in stable order. Callers must not mutate.
func (c *Corpus) Clauses() []*Clause { return c.clauses }

// Get looks a clause up by id.
func (c *Corpus) Get(id string) (*Clause, bool) {
	cl, ok := c.byID[id]
	return cl, ok
}

// ByPart returns the clauses of one part in stable order.
func (c *Corpus) ByPart(partNumber int) []*Clause {
	var out []*Clause
	for _, cl := range c.clauses {
		if cl.PartNumber == partNumber {
			out = append(out, cl)
		}
	}
	return out
}

// ByCategory returns the clauses of one category in stable order.
func (c *Corpus) ByCategory(cat Category) []*Clause {
	var out []*Clause
	for _, cl := range c.clauses {
		if cl.Category == cat {
			out = append(out, cl)
		}
	}
	return out
}
