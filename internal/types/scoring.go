package types

const (
	ScoreMin int = 1
	ScoreMax int = 10
)

type ScoreRequest struct {
	// Identity of the scoring judge, passed explicitly rather than derived
	// from ambient auth state
	JudgeID string `json:"judge_id" validate:"required,uuid_rfc4122" format:"uuid"`
	// Integer score in [1,10]
	Score int `json:"score" validate:"required,gte=1,lte=10"`
	// Free text judge commentary
	Comment string `json:"comment" validate:"max=4096"`
}

type LockRequest struct {
	JudgeID string `json:"judge_id" validate:"required,uuid_rfc4122" format:"uuid"`
	// Must equal LockConfirmation verbatim. Locking is terminal.
	Confirmation string `json:"confirmation" validate:"required"`
}
