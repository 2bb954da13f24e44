package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Participant struct {
	DisplayName string
	Email       string
	// Numeric score participants are ranked by, descending
	Score float64
	// Terminal once true. There is no unlock transition.
	Locked   bool
	LockedBy datatypes.Null[uuid.UUID]
	LockedAt datatypes.Null[time.Time]
	Model
	CompetitionID uuid.UUID
}

func (Participant) TableName() string {
	return "participant"
}

func (p Participant) GetID() uuid.UUID {
	return p.ID
}
