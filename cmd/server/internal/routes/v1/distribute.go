package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/distribution"
	srverr "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/error"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/response"
	"github.com/etlonline/prompt-competition/assignment-service/internal/audit"
	"github.com/etlonline/prompt-competition/assignment-service/internal/common"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

type assignmentNotification struct {
	CompetitionID string `json:"competition_id"`
	RunID         string `json:"run_id"`
	JudgeID       string `json:"judge_id"`
	AssignedCount int    `json:"assigned_count"`
}

// resolveCapacities turns the roster judge list into the ordered capacity
// slice the weighted strategy consumes. Request overrides win over declared
// capacities; judges absent from a provided override map get nothing.
func resolveCapacities(
	judges []models.RosterJudge,
	overrides map[string]int,
) ([]distribution.JudgeCapacity, error) {
	resolved := make([]distribution.JudgeCapacity, 0, len(judges))

	if len(overrides) > 0 {
		byID := make(map[uuid.UUID]int, len(overrides))
		for rawID, capacity := range overrides {
			id, err := uuid.Parse(rawID)
			if err != nil {
				return nil, fmt.Errorf("capacity key %q is not a judge id: %w", rawID, err)
			}
			byID[id] = capacity
		}

		for _, judge := range judges {
			capacity, ok := byID[judge.ID]
			if !ok {
				continue
			}
			resolved = append(resolved, distribution.JudgeCapacity{
				ID:       judge.ID,
				Capacity: capacity,
			})
		}

		return resolved, nil
	}

	for _, judge := range judges {
		if judge.Capacity == nil {
			continue
		}
		resolved = append(resolved, distribution.JudgeCapacity{
			ID:       judge.ID,
			Capacity: *judge.Capacity,
		})
	}

	return resolved, nil
}

func (h *Handler) Distribute(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Distribute")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received distribution request")

	auth, ok := c.Get("auth").(*models.Auth)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("auth: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	competition, ok := c.Get("competition").(*models.Competition)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("competition: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	competitionID := competition.ID.String()

	span.SetAttributes(
		attribute.String("auth.note", auth.Note),
		attribute.String("auth.id", auth.ID.String()),
		attribute.String("competition.id", competitionID),
	)

	var rdata types.DistributionRequest

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

	span.SetAttributes(
		attribute.String("strategy", string(rdata.Strategy)),
		attribute.Int("top_n", rdata.TopN),
	)

	span.AddEvent("loading roster")
	roster, err := models.LoadRoster(ctx, db, competition.ID, rdata.TopN)
	if err != nil {
		if errors.Is(err, models.ErrNoParticipants) {
			span.SetStatus(codes.Ok, "no participants to distribute")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusNotFound,
				types.StringError("competition has no participants"),
			)
		}

		span.SetStatus(codes.Error, "failed to load roster")
		span.RecordError(err)
		return response.InternalServerError
	}

	var assignments []distribution.JudgeAssignment
	unassigned := 0

	span.AddEvent("partitioning participants")
	switch rdata.Strategy {
	case types.StrategyRoundRobin:
		judges := make([]uuid.UUID, 0, len(roster.Judges))
		for _, judge := range roster.Judges {
			judges = append(judges, judge.ID)
		}

		assignments, err = distribution.RoundRobin(roster.Participants, judges)
		if err != nil {
			span.SetStatus(codes.Ok, "no judges available")
			span.RecordError(err)
			return echo.NewHTTPError(
				http.StatusConflict,
				types.StringError("no judges available"),
			)
		}
	case types.StrategyWeighted:
		capacities, err := resolveCapacities(roster.Judges, rdata.Capacities)
		if err != nil {
			span.SetStatus(codes.Ok, "bad capacity override")
			span.RecordError(err)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"capacities": "keys must be judge uuids",
				}},
			)
		}

		reject := h.config.Distribution.ShortfallPolicy == types.ShortfallReject
		assignments, unassigned, err = distribution.Weighted(
			roster.Participants,
			capacities,
			reject,
		)
		if err != nil {
			var shortfall *distribution.CapacityShortfallError
			switch {
			case errors.Is(err, distribution.ErrNoCapacity):
				span.SetStatus(codes.Ok, "no capacity available")
				span.RecordError(err)
				return echo.NewHTTPError(
					http.StatusConflict,
					types.StringError("no capacity available"),
				)
			case errors.As(err, &shortfall):
				span.SetStatus(codes.Ok, "capacity shortfall rejected")
				span.RecordError(err)
				return echo.NewHTTPError(
					http.StatusConflict,
					types.StringError(shortfall.Error()),
				)
			default:
				span.SetStatus(codes.Error, "failed to partition participants")
				span.RecordError(err)
				return response.InternalServerError
			}
		}
	default:
		// unreachable, the validator pins the strategy values
		return response.InternalServerError
	}

	runID := uuid.New()
	span.SetAttributes(attribute.String("run.id", runID.String()))

	rows := make([]models.Assignment, 0, len(assignments))
	judgeIDs := make([]uuid.UUID, 0, len(assignments))
	perJudge := make(map[string]int, len(assignments))
	assignedCount := 0
	for _, assignment := range assignments {
		rows = append(rows, models.Assignment{
			CompetitionID: competition.ID,
			JudgeID:       assignment.JudgeID,
			RunID:         runID,
			Participants:  datatypes.NewJSONSlice(assignment.Participants),
			AssignedCount: len(assignment.Participants),
		})
		judgeIDs = append(judgeIDs, assignment.JudgeID)
		perJudge[assignment.JudgeID.String()] = len(assignment.Participants)
		assignedCount += len(assignment.Participants)
	}

	span.AddEvent("committing assignment set", trace.WithAttributes(
		attribute.Int("assigned", assignedCount),
		attribute.Int("unassigned", unassigned),
	))
	err = models.ReplaceAssignments(ctx, db, competition.ID, rows)
	if err != nil {
		span.SetStatus(codes.Error, "failed to commit assignment set")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadGateway,
			types.StringError("failed to commit assignments"),
		)
	}

	if h.Queuer != nil && h.config.Distribution.NotifyEnabled {
		span.AddEvent("announcing assignments")
		for _, assignment := range assignments {
			err = h.Queuer.Enqueue(ctx, assignmentNotification{
				CompetitionID: competitionID,
				RunID:         runID.String(),
				JudgeID:       assignment.JudgeID.String(),
				AssignedCount: len(assignment.Participants),
			})
			if err != nil {
				// assignments are committed, notification is best effort
				span.AddEvent("failed to announce assignment", trace.WithAttributes(
					attribute.String("judge.id", assignment.JudgeID.String()),
				))
				span.RecordError(err)
			}
		}
	}

	span.AddEvent("generating audit log message")
	audit.LogDistributionRun(
		audit.Context{CompetitionID: competitionID},
		runID.String(),
		rdata.Strategy,
		rdata.TopN,
		assignedCount,
		common.SliceToStringSlice(judgeIDs),
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")

	return c.JSON(http.StatusOK, types.DistributionResponse{
		RunID:         runID.String(),
		AssignedCount: assignedCount,
		PerJudge:      perJudge,
	})
}

func (h *Handler) ListAssignments(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListAssignments")
	defer span.End()

	db := h.DB.WithContext(ctx)

	competition, ok := c.Get("competition").(*models.Competition)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("competition: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("competition.id", competition.ID.String()))

	span.AddEvent("loading assignment set")
	var rows []models.Assignment
	err := db.Where("competition_id = ?", competition.ID).
		Order("judge_id ASC").
		Find(&rows).
		Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to load assignments")
		span.RecordError(err)
		return response.InternalServerError
	}

	views := make([]types.AssignmentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, types.AssignmentView{
			JudgeID:       row.JudgeID.String(),
			RunID:         row.RunID.String(),
			Participants:  common.SliceToStringSlice([]uuid.UUID(row.Participants)),
			AssignedCount: row.AssignedCount,
		})
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.AssignmentsResponse{Assignments: views})
}
