package types

type CompetitionRequest struct {
	Name    string `json:"name"     validate:"required,max=256"`
	RoundID string `json:"round_id" validate:"required,max=128"`
}

type CompetitionResponse struct {
	CompetitionID string `json:"competition_id" validate:"required,uuid_rfc4122" format:"uuid"`
}

type ParticipantRequest struct {
	DisplayName string  `json:"display_name" validate:"required,max=256"`
	Email       string  `json:"email"        validate:"required,email"`
	Score       float64 `json:"score"        validate:"gte=0"`
}

type ParticipantResponse struct {
	ParticipantID string `json:"participant_id" validate:"required,uuid_rfc4122" format:"uuid"`
}

type JudgeRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=256"`
	Email       string `json:"email"        validate:"required,email"`
	// Max participants this judge is willing to review. Absent means no
	// declared capacity; the judge is skipped by weighted distribution.
	Capacity *int `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}

type JudgeUpdate struct {
	Capacity Optional[int] `json:"capacity"`
}

type JudgeResponse struct {
	JudgeID string `json:"judge_id" validate:"required,uuid_rfc4122" format:"uuid"`
}

type PingResponse struct {
	Status string `json:"status" validate:"required"`
}
