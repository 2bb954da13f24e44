package types

type DistributionRequest struct {
	// Number of top ranked participants to distribute
	TopN int `json:"top_n" validate:"required,gt=0"`
	// Strategy selecting how participants are partitioned across judges
	Strategy Strategy `json:"strategy" validate:"required,oneof=round-robin weighted"`
	// Optional per judge capacity overrides for weighted runs, keyed by judge id.
	// When absent the capacities declared on the judge records are used.
	Capacities map[string]int `json:"capacities,omitempty" validate:"omitempty,dive,gte=0"`
}

type DistributionResponse struct {
	RunID string `json:"run_id" validate:"required,uuid_rfc4122" format:"uuid"`
	// Sum of all per judge list lengths. On a weighted run this may be less
	// than top_n; the caller must compare the two to detect a shortfall.
	AssignedCount int            `json:"assigned_count"`
	PerJudge      map[string]int `json:"per_judge"      validate:"required"`
}

type AssignmentView struct {
	JudgeID       string   `json:"judge_id"       validate:"required,uuid_rfc4122" format:"uuid"`
	RunID         string   `json:"run_id"         validate:"required,uuid_rfc4122" format:"uuid"`
	Participants  []string `json:"participants"   validate:"required"`
	AssignedCount int      `json:"assigned_count"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentView `json:"assignments" validate:"required"`
}
