package api

import (
	"log/slog"
	"net/http"

	"github.com/bina-labs/kanun/pkg/archive"
	"github.com/bina-labs/kanun/pkg/check"
	"github.com/bina-labs/kanun/pkg/engine"
	"github.com/bina-labs/kanun/pkg/explainer"
	"github.com/bina-labs/kanun/pkg/report"
	"github.com/bina-labs/kanun/pkg/search"
)

// Server routes the engine's public operations. It owns no business logic;
// every handler delegates to a service and translates errors at the edge.
type Server struct {
	checks     *check.Service
	reports    *report.Generator
	search     *search.Service
	engine     *engine.Engine
	explainers *explainer.Store
	archive    archive.Store // nil disables export archiving
	logger     *slog.Logger
}

// Options wires the server's collaborators.
type Options struct {
	Checks     *check.Service
	Reports    *report.Generator
	Search     *search.Service
	Engine     *engine.Engine
	Explainers *explainer.Store
	Archive    archive.Store
	Logger     *slog.Logger
	RateRPS    int
	RateBurst  int
}

// NewServer builds the HTTP handler chain.
func NewServer(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		checks:     opts.Checks,
		reports:    opts.Reports,
		search:     opts.Search,
		engine:     opts.Engine,
		explainers: opts.Explainers,
		archive:    opts.Archive,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/checks", s.handleRunCheck)
	mux.HandleFunc("GET /v1/checks/{id}", s.handleGetCheck)
	mux.HandleFunc("GET /v1/projects/{id}/checks", s.handleListChecks)
	mux.HandleFunc("POST /v1/reports", s.handleGenerateReport)
	mux.HandleFunc("GET /v1/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /v1/reports/{id}/export", s.handleExportReport)
	mux.HandleFunc("GET /v1/clauses", s.handleFilterClauses)
	mux.HandleFunc("GET /v1/clauses/search", s.handleSearchClauses)
	mux.HandleFunc("GET /v1/clauses/{id}", s.handleGetClause)
	mux.HandleFunc("GET /v1/clauses/{id}/explainer", s.handleGetExplainer)
	mux.HandleFunc("POST /v1/specs/applicable-clauses", s.handleApplicableClauses)

	rps, burst := opts.RateRPS, opts.RateBurst
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}

	var handler http.Handler = mux
	handler = NewRateLimiter(rps, burst).Middleware(handler)
	handler = Logging(logger)(handler)
	handler = RequestID(handler)
	return handler
}
