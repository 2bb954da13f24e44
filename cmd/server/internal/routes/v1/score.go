package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/error"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/response"
	"github.com/etlonline/prompt-competition/assignment-service/internal/audit"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

func (h *Handler) SubmitScore(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmitScore")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received score submission")

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	submissionID := submission.ID.String()

	span.SetAttributes(
		attribute.String("submission.id", submissionID),
		attribute.String("participant.id", submission.ParticipantID.String()),
	)

	var rdata types.ScoreRequest

	span.AddEvent("parsing request body")
	err := c.Bind(&rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed to parse request data"),
		)
	}

	span.AddEvent("validating request body")
	err = c.Validate(rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	judgeID, err := uuid.Parse(rdata.JudgeID)
	if err != nil {
		span.SetStatus(codes.Ok, "judge id was not a uuid")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	span.SetAttributes(
		attribute.String("judge.id", rdata.JudgeID),
		attribute.Int("score", rdata.Score),
	)

	span.AddEvent("checking judge exists")
	_, err = models.ByID[models.Judge](ctx, db, judgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "judge not found")
			span.RecordError(nil)
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to load judge")
		span.RecordError(err)
		return response.InternalServerError
	}

	var comment *string
	if rdata.Comment != "" {
		comment = &rdata.Comment
	}

	span.AddEvent("recording score")
	err = models.UpsertScore(ctx, db, submission, judgeID, rdata.Score, comment)
	if err != nil {
		if errors.Is(err, models.ErrParticipantLocked) {
			span.SetStatus(codes.Ok, "participant is locked")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusConflict,
				types.StringError("participant is locked"),
			)
		}

		span.SetStatus(codes.Error, "failed to record score")
		span.RecordError(err)
		return response.InternalServerError
	}

	participantID := submission.ParticipantID.String()

	span.AddEvent("generating audit log message")
	audit.LogScoreSubmitted(
		audit.Context{
			JudgeID:       &rdata.JudgeID,
			ParticipantID: &participantID,
			CompetitionID: submission.CompetitionID.String(),
		},
		submissionID,
		rdata.Score,
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.NoContent(http.StatusNoContent)
}
