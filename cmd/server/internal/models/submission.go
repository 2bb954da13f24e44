package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

type Submission struct {
	CompetitionID uuid.UUID
	ParticipantID uuid.UUID
	ChallengeID   string
	Content       string
	// Object path of the archived recording, if one was provided
	RecordingPath datatypes.Null[string]
	Status        types.SubmissionStatus
	Model
}

func (Submission) TableName() string {
	return "submission"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}
