package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/error"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/response"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

func (h *Handler) CreateCompetition(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateCompetition")
	defer span.End()

	db := h.DB.WithContext(ctx)

	var rdata types.CompetitionRequest

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

	competition := models.Competition{
		Name:    rdata.Name,
		RoundID: rdata.RoundID,
	}

	span.AddEvent("inserting into database")
	err = db.Create(&competition).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("competition.id", competition.ID.String()))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.CompetitionResponse{
		CompetitionID: competition.ID.String(),
	})
}

func (h *Handler) CreateParticipant(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateParticipant")
	defer span.End()

	db := h.DB.WithContext(ctx)

	competition, ok := c.Get("competition").(*models.Competition)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("competition: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("competition.id", competition.ID.String()))

	var rdata types.ParticipantRequest

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

	participant := models.Participant{
		CompetitionID: competition.ID,
		DisplayName:   rdata.DisplayName,
		Email:         rdata.Email,
		Score:         rdata.Score,
	}

	span.AddEvent("inserting into database")
	err = db.Create(&participant).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("participant.id", participant.ID.String()))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.ParticipantResponse{
		ParticipantID: participant.ID.String(),
	})
}
