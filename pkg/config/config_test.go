package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "DATABASE_DRIVER", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 20, cfg.RateRPS)
	assert.Equal(t, 40, cfg.RateBurst)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/kanun")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "junk")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/kanun", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.RateRPS)
	// Unparseable integers fall back to the default rather than failing.
	assert.Equal(t, 40, cfg.RateBurst)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "collector:4317", cfg.OTelEndpoint)
	assert.False(t, cfg.OTelInsecure)
}

func TestLoadScorePolicyDefault(t *testing.T) {
	policy, err := LoadScorePolicy("")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultScorePolicy(), policy)
}

func TestLoadScorePolicyWeightOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  critical: 25\n"), 0o644))

	policy, err := LoadScorePolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, policy.Weights[bylaw.SeverityCritical])

	// Untouched keys keep their defaults, including all recommendation templates.
	def := engine.DefaultScorePolicy()
	assert.Equal(t, def.Weights[bylaw.SeverityMajor], policy.Weights[bylaw.SeverityMajor])
	assert.Equal(t, def.Recommendations, policy.Recommendations)
}

func TestLoadScorePolicyInvalidWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  critical: -1\n"), 0o644))

	_, err := LoadScorePolicy(path)
	assert.Error(t, err)
}

func TestLoadScorePolicyMissingFile(t *testing.T) {
	_, err := LoadScorePolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read score policy")
}

func TestLoadScorePolicyMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: ["), 0o644))

	_, err := LoadScorePolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse score policy")
}
