// Package api exposes the compliance engine over HTTP with RFC 7807
// Problem Detail error responses.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bina-labs/kanun/pkg/bylaw"
)

// ProblemDetail implements RFC 7807 (Problem Details for HTTP APIs).
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference identifying the specific occurrence.
	Instance string `json:"instance,omitempty"`
	// Fields carries per-field validation problems when present.
	Fields []bylaw.FieldError `json:"fields,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 Problem Detail JSON response.
func WriteError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	writeProblem(w, &ProblemDetail{
		Type:     fmt.Sprintf("https://kanun.bina-labs.dev/errors/%d", status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// WriteDomainError maps engine error taxonomy to HTTP statuses:
// validation 400, not-found 404, invalid-state 409, storage 503,
// anything else 500.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *bylaw.ValidationError
		storage    *bylaw.StorageError
	)
	switch {
	case errors.As(err, &validation):
		writeProblem(w, &ProblemDetail{
			Type:     "https://kanun.bina-labs.dev/errors/validation",
			Title:    "Invalid building specification",
			Status:   http.StatusBadRequest,
			Detail:   validation.Error(),
			Instance: r.URL.Path,
			Fields:   validation.Fields,
		})
	case errors.Is(err, bylaw.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, bylaw.ErrInvalidState):
		WriteError(w, r, http.StatusConflict, "Invalid state", err.Error())
	case errors.As(err, &storage):
		// Transient by contract; the client may retry.
		WriteError(w, r, http.StatusServiceUnavailable, "Storage unavailable", storage.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func writeProblem(w http.ResponseWriter, problem *ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}
