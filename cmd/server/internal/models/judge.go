package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Judge struct {
	DisplayName string
	Email       string
	// Max participants this judge declared willing to review. Null means no
	// declared capacity; weighted distribution skips the judge.
	Capacity datatypes.Null[int]
	Model
}

func (Judge) TableName() string {
	return "judge"
}

func (j Judge) GetID() uuid.UUID {
	return j.ID
}
