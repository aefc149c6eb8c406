package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunCheck creates a check from the posted specification and runs it
// to a terminal state in the same request.
func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	var spec bylaw.BuildingSpecification
	if err := decodeJSON(r, &spec); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Malformed request body", err.Error())
		return
	}
	c, err := s.checks.RunSpec(r.Context(), &spec)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	c, err := s.checks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := s.checks.ListByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

type generateReportRequest struct {
	CheckID      string `json:"check_id"`
	CertifiedBy  string `json:"certified_by,omitempty"`
	ValidityDays int    `json:"validity_days,omitempty"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Malformed request body", err.Error())
		return
	}
	if req.CheckID == "" {
		WriteError(w, r, http.StatusBadRequest, "Malformed request body", "check_id is required")
		return
	}
	rep, err := s.reports.Generate(r.Context(), req.CheckID, report.CertifyOptions{
		By:       req.CertifiedBy,
		Validity: time.Duration(req.ValidityDays) * 24 * time.Hour,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleExportReport streams the stable plain-text export. The consumer
// chooses filename and disposition; the digest header lets it verify the
// bytes against the archive.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	data := report.Export(rep)

	if s.archive != nil {
		digest, err := s.archive.Put(r.Context(), data)
		if err != nil {
			// Archiving is best-effort; the export itself still succeeds.
			s.logger.Warn("export archive failed", "report_id", rep.ID, "error", err)
		} else {
			w.Header().Set("X-Kanun-Export-Digest", digest)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSearchClauses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		WriteError(w, r, http.StatusBadRequest, "Missing query", "q parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, s.search.Search(r.Context(), q))
}

func (s *Server) handleFilterClauses(w http.ResponseWriter, r *http.Request) {
	if cat := r.URL.Query().Get("category"); cat != "" {
		category := bylaw.Category(cat)
		if !category.Valid() {
			WriteError(w, r, http.StatusBadRequest, "Unknown category", fmt.Sprintf("category %q is not recognized", cat))
			return
		}
		writeJSON(w, http.StatusOK, s.search.FilterByCategory(category))
		return
	}
	if section := r.URL.Query().Get("section"); section != "" {
		var part int
		if _, err := fmt.Sscanf(section, "%d", &part); err != nil {
			WriteError(w, r, http.StatusBadRequest, "Bad section", "section must be a part number")
			return
		}
		writeJSON(w, http.StatusOK, s.search.FilterBySection(part))
		return
	}
	WriteError(w, r, http.StatusBadRequest, "Missing filter", "category or section parameter is required")
}

func (s *Server) handleGetClause(w http.ResponseWriter, r *http.Request) {
	c, ok := s.engine.Corpus().Get(r.PathValue("id"))
	if !ok {
		WriteDomainError(w, r, bylaw.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleGetExplainer returns 204 when no explainer exists for the exact
// clause/language pair. Absence is a documented state, not an error, and no
// cross-language fallback is served.
func (s *Server) handleGetExplainer(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "en"
	}
	e, ok := s.explainers.Get(r.PathValue("id"), lang)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleApplicableClauses(w http.ResponseWriter, r *http.Request) {
	var spec bylaw.BuildingSpecification
	if err := decodeJSON(r, &spec); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Malformed request body", err.Error())
		return
	}
	clauses, err := s.engine.ApplicableClauses(&spec)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clauses)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
