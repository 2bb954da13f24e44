package types

type SubmissionRequest struct {
	CompetitionID string `json:"competition_id" validate:"required,uuid_rfc4122" format:"uuid"`
	ParticipantID string `json:"participant_id" validate:"required,uuid_rfc4122" format:"uuid"`
	ChallengeID   string `json:"challenge_id"   validate:"required,max=128"`
	// Free text response to the challenge
	Content string `json:"content" validate:"required"`
	// Base64 encoded audio recording
	//
	// 2MiB max size before Base64 encoding
	Recording string `json:"recording,omitempty" validate:"omitempty,base64"`
}

type SubmissionResponse struct {
	Status       SubmissionStatus `json:"status"        validate:"required,eq=submitted|eq=judgement_complete"`
	SubmissionID string           `json:"submission_id" validate:"required,uuid_rfc4122"                       format:"uuid"`
}

type ArchivedFile string

const (
	FileRecording ArchivedFile = "submission_recording"
)
