package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Assignment struct {
	CompetitionID uuid.UUID
	JudgeID       uuid.UUID
	// Identifies the distribution run that produced this row. Every row
	// written by one run carries the same RunID.
	RunID         uuid.UUID
	Participants  datatypes.JSONSlice[uuid.UUID]
	AssignedCount int
	Model
}

func (Assignment) TableName() string {
	return "assignment"
}

func (a Assignment) GetID() uuid.UUID {
	return a.ID
}

// ReplaceAssignments atomically swaps the competition's assignment set for a
// new one. Either every row lands or the previous set survives untouched.
func ReplaceAssignments(
	ctx context.Context,
	db *gorm.DB,
	competitionID uuid.UUID,
	rows []Assignment,
) error {
	ctx, span := tracer.Start(ctx, "ReplaceAssignments")
	defer span.End()

	span.SetAttributes(
		attribute.String("competition.id", competitionID.String()),
		attribute.Int("assignment.count", len(rows)),
	)

	db = db.WithContext(ctx)

	span.AddEvent("replacing assignment set")
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("competition_id = ?", competitionID).Delete(&Assignment{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear previous assignments: %w", result.Error)
		}

		if len(rows) == 0 {
			return nil
		}

		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to replace assignments")
		return err
	}

	return nil
}
