package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bina-labs/kanun/pkg/api"
	"github.com/bina-labs/kanun/pkg/archive"
	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/check"
	"github.com/bina-labs/kanun/pkg/config"
	"github.com/bina-labs/kanun/pkg/engine"
	"github.com/bina-labs/kanun/pkg/explainer"
	"github.com/bina-labs/kanun/pkg/observability"
	"github.com/bina-labs/kanun/pkg/report"
	"github.com/bina-labs/kanun/pkg/search"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver
)

const searchCacheTTL = 5 * time.Minute

func runServer() int {
	ctx := context.Background()
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	corpus, err := bylaw.LoadDir(cfg.CorpusDir)
	if err != nil {
		logger.Error("corpus load failed", "dir", cfg.CorpusDir, "error", err)
		return 1
	}
	logger.Info("corpus loaded",
		"name", corpus.Name(), "version", corpus.Version(),
		"clauses", corpus.Len(), "snapshot", corpus.SnapshotHash())

	explainers, err := explainer.LoadDir(cfg.ExplainerDir)
	if err != nil {
		logger.Error("explainer load failed", "dir", cfg.ExplainerDir, "error", err)
		return 1
	}

	policy, err := config.LoadScorePolicy(cfg.ScorePolicyPath)
	if err != nil {
		logger.Error("score policy load failed", "path", cfg.ScorePolicyPath, "error", err)
		return 1
	}

	eng, err := engine.New(corpus, policy, logger)
	if err != nil {
		logger.Error("engine init failed", "error", err)
		return 1
	}

	checkStore, reportStore, db, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "driver", cfg.DatabaseDriver, "error", err)
		return 1
	}
	if db != nil {
		defer db.Close()
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.Enabled = cfg.OTelEnabled
	obsCfg.OTLPEndpoint = cfg.OTelEndpoint
	obsCfg.Insecure = cfg.OTelInsecure
	obs, err := observability.New(ctx, obsCfg)
	if err != nil {
		logger.Warn("observability init failed", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Shutdown(shutdownCtx)
		}()
	}

	checkSvc := check.NewService(checkStore, eng, logger)
	if obs != nil {
		checkSvc = checkSvc.WithMetrics(obs)
	}

	var certifier *report.Certifier
	if cfg.CertSecret != "" {
		keys, err := report.NewDerivedKeyProvider([]byte(cfg.CertSecret))
		if err != nil {
			logger.Error("certification key derivation failed", "error", err)
			return 1
		}
		certifier = report.NewCertifier(keys)
		logger.Info("report certification enabled", "key", certifier.Fingerprint())
	} else {
		logger.Info("report certification disabled; set CERT_SECRET to enable")
	}
	reports := report.NewGenerator(checkSvc, reportStore, certifier, corpus, logger)

	var cache search.Cache = search.NewMemoryCache()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, using in-process search cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			cache = search.NewRedisCache(client, corpus.SnapshotHash(), searchCacheTTL)
			logger.Info("search cache: redis", "addr", cfg.RedisAddr)
		}
	}
	searchSvc := search.NewService(corpus, cache)

	archiveStore, err := archive.NewStoreFromEnv(ctx)
	if err != nil {
		logger.Error("report archive init failed", "error", err)
		return 1
	}

	handler := api.NewServer(api.Options{
		Checks:     checkSvc,
		Reports:    reports,
		Search:     searchSvc,
		Engine:     eng,
		Explainers: explainers,
		Archive:    archiveStore,
		Logger:     logger,
		RateRPS:    cfg.RateRPS,
		RateBurst:  cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kanun ready", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return 1
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown incomplete", "error", err)
			return 1
		}
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (check.Store, report.Store, *sql.DB, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, err
			}
		}
		db, err := sql.Open("sqlite", cfg.DatabasePath)
		if err != nil {
			return nil, nil, nil, err
		}
		checks, err := check.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		reports, err := report.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Info("store: sqlite", "path", cfg.DatabasePath)
		return checks, reports, db, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Info("store: postgres")
		return check.NewPostgresStore(db), report.NewPostgresStore(db), db, nil
	case "memory":
		logger.Info("store: memory (checks are not persisted)")
		return check.NewMemoryStore(), report.NewMemoryStore(), nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
