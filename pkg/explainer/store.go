package explainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// Store indexes explainers by clause id and canonical language tag. It is
// loaded once at startup and read-only thereafter; no locking is needed for
// concurrent lookups.
//
// Lookups never substitute another language: an absent (clause, language)
// pair is reported as absent so callers can render their own
// "not yet available" state.
type Store struct {
	byKey map[string]*Explainer // clauseID + "\x00" + lang
}

// NewStore builds a store from already-decoded explainers.
func NewStore(explainers []*Explainer) (*Store, error) {
	s := &Store{byKey: make(map[string]*Explainer, len(explainers))}
	for _, e := range explainers {
		if e.ClauseID == "" {
			return nil, fmt.Errorf("explainer with empty clause id")
		}
		tag, err := canonicalTag(e.Language)
		if err != nil {
			return nil, fmt.Errorf("explainer %s: %w", e.ClauseID, err)
		}
		key := e.ClauseID + "\x00" + tag
		if _, dup := s.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate explainer for clause %s language %s", e.ClauseID, tag)
		}
		s.byKey[key] = e
	}
	return s, nil
}

// LoadDir loads every .json explainer file under dir. Each file holds an
// array of explainers.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// No explainer content shipped. Normal for minimal deployments.
			return NewStore(nil)
		}
		return nil, fmt.Errorf("read explainer dir %s: %w", dir, err)
	}

	var all []*Explainer
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read explainer %s: %w", entry.Name(), err)
		}
		var batch []*Explainer
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parse explainer %s: %w", entry.Name(), err)
		}
		all = append(all, batch...)
	}
	return NewStore(all)
}

// Get returns the explainer for a clause in a language. The second return
// is false when no explainer exists for that exact pair; that is not an
// error condition.
func (s *Store) Get(clauseID, lang string) (*Explainer, bool) {
	tag, err := canonicalTag(lang)
	if err != nil {
		return nil, false
	}
	e, ok := s.byKey[clauseID+"\x00"+tag]
	return e, ok
}

// Len returns the number of loaded explainers.
func (s *Store) Len() int { return len(s.byKey) }

// canonicalTag normalizes a language code ("EN", "en-GB") to its BCP-47 base
// ("en") so store keys stay stable across caller spellings.
func canonicalTag(lang string) (string, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("language %q: %w", lang, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}
