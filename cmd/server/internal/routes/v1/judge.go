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

func (h *Handler) CreateJudge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateJudge")
	defer span.End()

	db := h.DB.WithContext(ctx)

	var rdata types.JudgeRequest

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

	judge := models.Judge{
		DisplayName: rdata.DisplayName,
		Email:       rdata.Email,
		Capacity:    models.NewNull(rdata.Capacity),
	}

	span.AddEvent("inserting into database")
	err = db.Create(&judge).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("judge.id", judge.ID.String()))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.JudgeResponse{JudgeID: judge.ID.String()})
}

// PatchJudge updates a judge's declared capacity. A defined null capacity
// clears the declaration, which removes the judge from weighted runs.
func (h *Handler) PatchJudge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "PatchJudge")
	defer span.End()

	db := h.DB.WithContext(ctx)

	judge, ok := c.Get("judge").(*models.Judge)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("judge: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("judge.id", judge.ID.String()))

	var rdata types.JudgeUpdate

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

	if rdata.Capacity.Defined {
		if rdata.Capacity.Value != nil && *rdata.Capacity.Value < 0 {
			span.SetStatus(codes.Ok, "capacity was negative")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"capacity": "must be >= 0",
				}},
			)
		}

		judge.Capacity = models.NewNull(rdata.Capacity.Value)

		span.AddEvent("saving judge")
		err = db.Save(judge).Error
		if err != nil {
			span.SetStatus(codes.Error, "failed to save")
			span.RecordError(err)
			return response.InternalServerError
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.JudgeResponse{JudgeID: judge.ID.String()})
}
