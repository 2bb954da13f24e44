package v1

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/error"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/response"
	"github.com/etlonline/prompt-competition/assignment-service/internal/archive"
	"github.com/etlonline/prompt-competition/assignment-service/internal/audit"
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
	"github.com/etlonline/prompt-competition/assignment-service/internal/upload"
	"github.com/etlonline/prompt-competition/assignment-service/internal/validator"
)

func (h *Handler) SubmitEntry(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmitEntry")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received submission")

	var rdata types.SubmissionRequest

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

	competitionID, err := uuid.Parse(rdata.CompetitionID)
	if err != nil {
		span.SetStatus(codes.Ok, "competition id was not a uuid")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	participantID, err := uuid.Parse(rdata.ParticipantID)
	if err != nil {
		span.SetStatus(codes.Ok, "participant id was not a uuid")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	span.SetAttributes(
		attribute.String("competition.id", rdata.CompetitionID),
		attribute.String("participant.id", rdata.ParticipantID),
		attribute.String("challenge.id", rdata.ChallengeID),
	)

	span.AddEvent("loading participant")
	participant, err := models.ByID[models.Participant](ctx, db, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "participant not found")
			span.RecordError(nil)
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to load participant")
		span.RecordError(err)
		return response.InternalServerError
	}

	if participant.CompetitionID != competitionID {
		span.SetStatus(codes.Ok, "participant is not in the competition")
		span.RecordError(nil)
		return response.NotFoundError
	}

	if participant.Locked {
		span.SetStatus(codes.Ok, "participant is locked")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusConflict,
			types.StringError("participant is locked"),
		)
	}

	submission := models.Submission{
		CompetitionID: competitionID,
		ParticipantID: participantID,
		ChallengeID:   rdata.ChallengeID,
		Content:       rdata.Content,
		Status:        types.SubmissionStatusSubmitted,
	}

	var recording []byte
	if rdata.Recording != "" {
		span.AddEvent("validating recording is within size limit")
		if !validator.ValidateRecordingSize(len(rdata.Recording)) {
			span.SetStatus(codes.Ok, "recording was too large")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"recording": "must be <= 2mb",
				}},
			)
		}

		span.AddEvent("decoding recording base64")
		recording, err = base64.StdEncoding.DecodeString(rdata.Recording)
		if err != nil {
			span.SetStatus(codes.Ok, "failed to decode recording")
			span.RecordError(err)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "failed to decode base64", Fields: &map[string]string{
					"recording": "must be valid base64",
				}},
			)
		}

		span.AddEvent("uploading recording")
		blobName, err := upload.Hashed(
			ctx,
			h.recordingsUploader,
			bytes.NewReader(recording),
			int64(len(recording)),
		)
		if err != nil {
			span.SetStatus(codes.Error, "failed to upload recording")
			span.RecordError(err)
			return response.InternalServerError
		}

		span.SetAttributes(attribute.String("blob.name", blobName))
		submission.RecordingPath = models.NewNullFromData(blobName)
	}

	span.AddEvent("inserting into database")
	err = db.Create(&submission).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}

	submissionID := submission.ID.String()
	span.SetAttributes(attribute.String("submission.id", submissionID))

	auditContext := audit.Context{
		ParticipantID: &rdata.ParticipantID,
		CompetitionID: rdata.CompetitionID,
	}

	if recording != nil {
		metadata := &archive.FileMetadata{
			Buffer:       &recording,
			ArchivedFile: types.FileRecording,
			Entity:       audit.EntitySubmission,
			EntityID:     submissionID,
		}
		err = archive.ArchiveFile(ctx, auditContext, h.archiver, metadata)
		if err != nil {
			span.SetStatus(codes.Error, "failed to archive file")
			span.RecordError(err)
			return response.InternalServerError
		}
	}

	span.AddEvent("generating audit log message")
	audit.LogSubmissionReceived(
		auditContext,
		submissionID,
		rdata.ChallengeID,
		submission.RecordingPath.V,
	)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.SubmissionResponse{
		Status:       submission.Status,
		SubmissionID: submissionID,
	})
}

// SubmissionContent returns the challenge response body for a submission.
// Content referencing an external url is resolved through the fetcher so
// judges always read through the service.
func (h *Handler) SubmissionContent(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmissionContent")
	defer span.End()

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))

	content := submission.Content
	if strings.HasPrefix(content, "http://") || strings.HasPrefix(content, "https://") {
		span.AddEvent("fetching external content")
		body, err := h.fetcher.Fetch(ctx, content)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch content")
			span.RecordError(err)
			return echo.NewHTTPError(
				http.StatusBadGateway,
				types.StringError("failed to fetch submission content"),
			)
		}
		defer body.Close()

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return c.Stream(http.StatusOK, echo.MIMETextPlainCharsetUTF8, body)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.Stream(
		http.StatusOK,
		echo.MIMETextPlainCharsetUTF8,
		io.NopCloser(strings.NewReader(content)),
	)
}

// SubmissionRecording streams the archived audio recording for a submission
// out of blob storage.
func (h *Handler) SubmissionRecording(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmissionRecording")
	defer span.End()

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))

	if !submission.RecordingPath.Valid {
		span.SetStatus(codes.Ok, "submission has no recording")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusNotFound,
			types.StringError("submission has no recording"),
		)
	}

	span.AddEvent("fetching recording blob")
	body, err := h.recordingsFetcher.Fetch(ctx, submission.RecordingPath.V)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch recording")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadGateway,
			types.StringError("failed to fetch submission recording"),
		)
	}
	defer body.Close()

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, body)
}
