package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

var ErrParticipantLocked = fmt.Errorf("participant is locked")

// IncompleteScoringError reports a lock attempt while some of the
// participant's submissions still lack a score from the locking judge.
type IncompleteScoringError struct {
	Remaining int
}

func (e *IncompleteScoringError) Error() string {
	return fmt.Sprintf("%d submissions still unscored", e.Remaining)
}

// UpsertScore records or overwrites a judge's score for a submission. The
// participant row is locked for the duration of the transaction so a
// concurrent lock cannot slip between the check and the write.
func UpsertScore(
	ctx context.Context,
	db *gorm.DB,
	submission *Submission,
	judgeID uuid.UUID,
	score int,
	comment *string,
) error {
	ctx, span := tracer.Start(ctx, "UpsertScore")
	defer span.End()

	span.SetAttributes(
		attribute.String("submission.id", submission.ID.String()),
		attribute.String("judge.id", judgeID.String()),
		attribute.Int("score", score),
	)

	db = db.WithContext(ctx)

	span.AddEvent("upserting score")
	err := db.Transaction(func(tx *gorm.DB) error {
		var participant Participant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&participant, submission.ParticipantID).
			Error
		if err != nil {
			return fmt.Errorf("failed to load participant: %w", err)
		}

		if participant.Locked {
			return ErrParticipantLocked
		}

		row := JudgeScore{
			SubmissionID: submission.ID,
			JudgeID:      judgeID,
			Score:        score,
			Comment:      NewNull(comment),
		}

		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}, {Name: "judge_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score",
				"comment",
				"updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert score: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert score")
		return err
	}

	return nil
}

// LockParticipant marks a participant's judgement finished for good. The
// transition is terminal, requires every submission of the participant to
// already carry at least one score, and flips the submissions to
// judgement_complete alongside.
func LockParticipant(
	ctx context.Context,
	db *gorm.DB,
	participantID uuid.UUID,
	judgeID uuid.UUID,
) error {
	ctx, span := tracer.Start(ctx, "LockParticipant")
	defer span.End()

	span.SetAttributes(
		attribute.String("participant.id", participantID.String()),
		attribute.String("judge.id", judgeID.String()),
	)

	db = db.WithContext(ctx)

	span.AddEvent("locking participant")
	err := db.Transaction(func(tx *gorm.DB) error {
		var participant Participant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&participant, participantID).
			Error
		if err != nil {
			return fmt.Errorf("failed to load participant: %w", err)
		}

		if participant.Locked {
			return ErrParticipantLocked
		}

		var remaining int64
		err = tx.Model(&Submission{}).
			Where("participant_id = ?", participantID).
			Where(
				"NOT EXISTS (SELECT 1 FROM judge_score WHERE judge_score.submission_id = submission.id)",
			).
			Count(&remaining).
			Error
		if err != nil {
			return fmt.Errorf("failed to count unscored submissions: %w", err)
		}

		if remaining > 0 {
			return &IncompleteScoringError{Remaining: int(remaining)}
		}

		participant.Locked = true
		participant.LockedBy = NewNullFromData(judgeID)
		participant.LockedAt = NewNullFromData(time.Now())
		if err := tx.Save(&participant).Error; err != nil {
			return fmt.Errorf("failed to lock participant: %w", err)
		}

		err = tx.Model(&Submission{}).
			Where("participant_id = ?", participantID).
			Update("status", types.SubmissionStatusComplete).
			Error
		if err != nil {
			return fmt.Errorf("failed to finalize submissions: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lock participant")
		return err
	}

	return nil
}
