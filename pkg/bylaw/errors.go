package bylaw

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a missing check, report, or clause identifier.
var ErrNotFound = errors.New("not found")

// ErrInvalidState reports an operation against a record in the wrong state,
// e.g. generating a report for a check that has not completed.
var ErrInvalidState = errors.New("invalid state")

// FieldError names one invalid specification field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError rejects a specification before evaluation. The check is
// never partially evaluated.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "invalid building specification: " + strings.Join(parts, "; ")
}

// EvaluationError records that one clause's predicate could not be computed.
// It is collected per-clause alongside a best-effort result, never treated
// as a pass and never aborting the whole check.
type EvaluationError struct {
	ClauseID string `json:"clause_id"`
	Stage    string `json:"stage"` // "applicability" or "evaluation"
	Detail   string `json:"detail"`
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("clause %s: %s predicate failed: %s", e.ClauseID, e.Stage, e.Detail)
}

// StorageError wraps a repository failure. The engine does not retry; the
// caller classifies it as transient.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
