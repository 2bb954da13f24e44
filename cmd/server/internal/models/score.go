package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JudgeScore is unique per (submission_id, judge_id). Re-submitting a score
// overwrites the previous value for that pair.
type JudgeScore struct {
	SubmissionID uuid.UUID `gorm:"uniqueIndex:idx_submission_judge"`
	JudgeID      uuid.UUID `gorm:"uniqueIndex:idx_submission_judge"`
	Score        int
	Comment      datatypes.Null[string]
	Model
}

func (JudgeScore) TableName() string {
	return "judge_score"
}

func (j JudgeScore) GetID() uuid.UUID {
	return j.ID
}
