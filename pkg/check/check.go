// Package check owns the ComplianceCheck lifecycle: an immutable record of
// one evaluation run against a building specification, persisted in an
// append-only store. Re-evaluating a project always creates a new check; a
// completed check is never mutated in place.
package check

import (
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"
)

// Status is the lifecycle state of a check.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ComplianceCheck is one evaluation run. Result is present only once the
// check reaches a terminal state with output.
type ComplianceCheck struct {
	ID             string             `json:"id"`
	ProjectID      string             `json:"project_id"`
	ProjectName    string             `json:"project_name,omitempty"`
	BuildingType   bylaw.BuildingType `json:"building_type"`
	BuildingHeight float64            `json:"building_height"`
	FloorArea      float64            `json:"floor_area"`
	Occupancy      int                `json:"occupancy"`
	CheckDate      time.Time          `json:"check_date"`
	Status         Status             `json:"status"`
	Result         *engine.Result     `json:"result,omitempty"`
	// FailureReason is set when Status is failed.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Spec reconstructs the building specification the check was created from.
func (c *ComplianceCheck) Spec() *bylaw.BuildingSpecification {
	return &bylaw.BuildingSpecification{
		ProjectID:      c.ProjectID,
		ProjectName:    c.ProjectName,
		BuildingType:   c.BuildingType,
		BuildingHeight: c.BuildingHeight,
		FloorArea:      c.FloorArea,
		Occupancy:      c.Occupancy,
	}
}

// Terminal reports whether the check reached a final state.
func (c *ComplianceCheck) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusFailed
}
