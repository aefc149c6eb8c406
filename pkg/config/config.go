// Package config loads runtime configuration from the environment plus an
// optional YAML scoring-policy file.
package config

import (
	"os"
	"strconv"
)

// Config holds server configuration.
type Config struct {
	Port      string
	LogLevel  string
	CorpusDir string
	// ExplainerDir may point at a missing directory; explainer content is
	// optional.
	ExplainerDir string
	// DatabaseDriver is "sqlite" (default) or "postgres".
	DatabaseDriver string
	// DatabasePath is the SQLite file path.
	DatabasePath string
	// DatabaseURL is the Postgres DSN when DatabaseDriver is "postgres".
	DatabaseURL string
	// ScorePolicyPath optionally overrides the default scoring policy.
	ScorePolicyPath string
	// RedisAddr enables the shared search cache when set.
	RedisAddr string
	// CertSecret seeds the report certification key. Empty disables
	// certification.
	CertSecret string
	RateRPS    int
	RateBurst  int
	// OTelEnabled turns on OTLP export of traces and metrics.
	OTelEnabled bool
	// OTelEndpoint is the OTLP gRPC collector address.
	OTelEndpoint string
	OTelInsecure bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:            envDefault("PORT", "8080"),
		LogLevel:        envDefault("LOG_LEVEL", "INFO"),
		CorpusDir:       envDefault("CORPUS_DIR", "corpus"),
		ExplainerDir:    envDefault("EXPLAINER_DIR", "explainers"),
		DatabaseDriver:  envDefault("DATABASE_DRIVER", "sqlite"),
		DatabasePath:    envDefault("DATABASE_PATH", "data/kanun.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ScorePolicyPath: os.Getenv("SCORE_POLICY_PATH"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CertSecret:      os.Getenv("CERT_SECRET"),
		RateRPS:         envInt("RATE_LIMIT_RPS", 20),
		RateBurst:       envInt("RATE_LIMIT_BURST", 40),
		OTelEnabled:     envBool("OTEL_ENABLED", false),
		OTelEndpoint:    envDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelInsecure:    envBool("OTEL_INSECURE", false),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
