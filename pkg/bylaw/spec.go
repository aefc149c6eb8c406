package bylaw

import "strings"

// BuildingType categorizes the use of a building.
type BuildingType string

const (
	BuildingResidential   BuildingType = "residential"
	BuildingCommercial    BuildingType = "commercial"
	BuildingIndustrial    BuildingType = "industrial"
	BuildingInstitutional BuildingType = "institutional"
	BuildingMixedUse      BuildingType = "mixed-use"
)

// BuildingSpecification is the input to a compliance check. All four
// numeric/categorical fields are mandatory.
type BuildingSpecification struct {
	ProjectID      string       `json:"project_id"`
	ProjectName    string       `json:"project_name,omitempty"`
	BuildingType   BuildingType `json:"building_type"`
	BuildingHeight float64      `json:"building_height"` // meters
	FloorArea      float64      `json:"floor_area"`      // square meters
	Occupancy      int          `json:"occupancy"`
}

// Validate checks the specification before any evaluation runs. It returns a
// *ValidationError naming every invalid field, or nil.
func (s *BuildingSpecification) Validate() error {
	var problems []FieldError
	if strings.TrimSpace(s.ProjectID) == "" {
		problems = append(problems, FieldError{Field: "project_id", Reason: "must not be empty"})
	}
	switch s.BuildingType {
	case BuildingResidential, BuildingCommercial, BuildingIndustrial, BuildingInstitutional, BuildingMixedUse:
	case "":
		problems = append(problems, FieldError{Field: "building_type", Reason: "must not be empty"})
	default:
		problems = append(problems, FieldError{Field: "building_type", Reason: "unknown building type"})
	}
	if s.BuildingHeight <= 0 {
		problems = append(problems, FieldError{Field: "building_height", Reason: "must be greater than zero"})
	}
	if s.FloorArea <= 0 {
		problems = append(problems, FieldError{Field: "floor_area", Reason: "must be greater than zero"})
	}
	if s.Occupancy < 0 {
		problems = append(problems, FieldError{Field: "occupancy", Reason: "must not be negative"})
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// Input converts the specification into the CEL activation map shared by the
// applicability and evaluation predicates. Key set is part of the corpus
// contract; renaming a key breaks every bundle that references it.
func (s *BuildingSpecification) Input() map[string]any {
	return map[string]any{
		"project_id":      s.ProjectID,
		"building_type":   string(s.BuildingType),
		"building_height": s.BuildingHeight,
		"floor_area":      s.FloorArea,
		"occupancy":       int64(s.Occupancy),
	}
}
