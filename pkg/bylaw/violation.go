package bylaw

// Violation is one detected failure of a specification against a clause's
// evaluation predicate. Every ClauseID referenced by a violation must appear
// in the applicable-clause set of the same result.
type Violation struct {
	ClauseID       string   `json:"clause_id"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	RequiredAction string   `json:"required_action"`
}
