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

func (h *Handler) LockParticipant(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "LockParticipant")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received lock request")

	participant, ok := c.Get("participant").(*models.Participant)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("participant: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	participantID := participant.ID.String()

	span.SetAttributes(
		attribute.String("participant.id", participantID),
		attribute.String("competition.id", participant.CompetitionID.String()),
	)

	var rdata types.LockRequest

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

	span.AddEvent("checking confirmation text")
	if rdata.Confirmation != types.LockConfirmation {
		span.SetStatus(codes.Ok, "confirmation text did not match")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.Error{Message: "validation error", Fields: &map[string]string{
				"confirmation": fmt.Sprintf("must equal %q", types.LockConfirmation),
			}},
		)
	}

	judgeID, err := uuid.Parse(rdata.JudgeID)
	if err != nil {
		span.SetStatus(codes.Ok, "judge id was not a uuid")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	span.SetAttributes(attribute.String("judge.id", rdata.JudgeID))

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

	span.AddEvent("locking participant")
	err = models.LockParticipant(ctx, db, participant.ID, judgeID)
	if err != nil {
		var incomplete *models.IncompleteScoringError
		switch {
		case errors.Is(err, models.ErrParticipantLocked):
			span.SetStatus(codes.Ok, "participant already locked")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusConflict,
				types.StringError("participant is already locked"),
			)
		case errors.As(err, &incomplete):
			span.SetStatus(codes.Ok, "submissions still unscored")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusConflict,
				types.Error{Message: "incomplete scoring", Fields: &map[string]string{
					"remaining": fmt.Sprintf("%d", incomplete.Remaining),
				}},
			)
		default:
			span.SetStatus(codes.Error, "failed to lock participant")
			span.RecordError(err)
			return response.InternalServerError
		}
	}

	span.AddEvent("counting completed submissions")
	var completed int64
	err = db.Model(&models.Submission{}).
		Where("participant_id = ?", participant.ID).
		Count(&completed).
		Error
	if err != nil {
		// lock already committed, the count is informational
		span.RecordError(err)
		completed = 0
	}

	span.AddEvent("generating audit log message")
	audit.LogParticipantLocked(
		audit.Context{
			JudgeID:       &rdata.JudgeID,
			ParticipantID: &participantID,
			CompetitionID: participant.CompetitionID.String(),
		},
		int(completed),
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.NoContent(http.StatusNoContent)
}
