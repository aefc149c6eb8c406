package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bina-labs/kanun/pkg/engine"
)

// LoadScorePolicy reads a scoring policy YAML file. An empty path returns
// the default policy. A file may override just the weights; missing
// recommendation templates fall back to the defaults so partial overrides
// stay valid.
func LoadScorePolicy(path string) (*engine.ScorePolicy, error) {
	policy := engine.DefaultScorePolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score policy %s: %w", path, err)
	}

	var override engine.ScorePolicy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse score policy %s: %w", path, err)
	}

	for sev, w := range override.Weights {
		policy.Weights[sev] = w
	}
	for cat, tmpl := range override.Recommendations {
		policy.Recommendations[cat] = tmpl
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("score policy %s: %w", path, err)
	}
	return policy, nil
}
