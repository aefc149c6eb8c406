package bylaw

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bundleSchema constrains bundle files before any clause-level validation
// runs, so a malformed file fails with a pointer to the offending field
// instead of a zero-value clause slipping through.
const bundleSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "version", "languages", "clauses"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string", "minLength": 1},
    "languages": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 2}
    },
    "clauses": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "number", "part_number", "part_title", "content", "category", "priority", "complexity"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "number": {"type": "string", "minLength": 1},
          "part_number": {"type": "integer", "minimum": 1},
          "part_title": {"type": "string"},
          "content": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "required": ["title", "text"],
              "properties": {
                "title": {"type": "string", "minLength": 1},
                "text": {"type": "string", "minLength": 1}
              }
            }
          },
          "category": {"enum": ["fire_safety", "structural", "submission", "accessibility", "environmental", "spatial", "services", "general"]},
          "tags": {"type": "array", "items": {"type": "string"}},
          "priority": {"enum": ["low", "medium", "high", "critical"]},
          "complexity": {"type": "integer", "minimum": 1, "maximum": 5},
          "applies_if": {"type": "string"},
          "rule": {
            "type": "object",
            "required": ["expr", "severity", "remediation"],
            "properties": {
              "expr": {"type": "string", "minLength": 1},
              "severity": {"enum": ["minor", "major", "critical"]},
              "remediation": {"type": "string", "minLength": 1},
              "actual_expr": {"type": "string"},
              "required_expr": {"type": "string"}
            }
          },
          "requires_calculation": {"type": "boolean"}
        }
      }
    }
  }
}`

// Bundle is the on-disk form of a clause corpus.
type Bundle struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Languages []string  `json:"languages"`
	Clauses   []*Clause `json:"clauses"`
}

var compiledBundleSchema = jsonschema.MustCompileString("bundle.schema.json", bundleSchema)

// ParseBundle validates raw bundle bytes against the schema and decodes them.
func ParseBundle(data []byte) (*Bundle, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if err := compiledBundleSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("bundle schema: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if _, err := semver.NewVersion(b.Version); err != nil {
		return nil, fmt.Errorf("bundle %s: version %q is not semver: %w", b.Name, b.Version, err)
	}
	return &b, nil
}

// LoadFile reads one bundle file.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	b, err := ParseBundle(data)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// LoadDir loads every .json bundle under dir and assembles a single corpus.
// Multiple bundles may split a corpus across files; they must agree on
// languages, and the corpus takes the highest bundle version.
func LoadDir(dir string) (*Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("corpus dir %s: no bundle files", dir)
	}
	sort.Strings(names)

	var (
		corpusName string
		clauses    []*Clause
		languages  []string
		top        *semver.Version
	)
	for _, name := range names {
		b, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if languages == nil {
			corpusName = b.Name
			languages = b.Languages
		} else if !sameLanguages(languages, b.Languages) {
			return nil, fmt.Errorf("bundle %s: language set %v conflicts with %v", name, b.Languages, languages)
		}
		v := semver.MustParse(b.Version)
		if top == nil || v.GreaterThan(top) {
			top = v
		}
		clauses = append(clauses, b.Clauses...)
	}

	return NewCorpus(corpusName, top.String(), languages, clauses)
}

func sameLanguages(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, l := range a {
		seen[l] = true
	}
	for _, l := range b {
		if !seen[l] {
			return false
		}
	}
	return true
}
