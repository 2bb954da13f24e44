package models

import (
	"github.com/google/uuid"
)

type Competition struct {
	Name    string
	RoundID string
	Model
}

func (Competition) TableName() string {
	return "competition"
}

func (c Competition) GetID() uuid.UUID {
	return c.ID
}
