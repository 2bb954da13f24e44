package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/etlonline/prompt-competition/assignment-service/cmd/server/internal/models"
)

func (s *ServerTestSuite) Test_SubmitEntry() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		competitionID  string
		participantID  string
		content        string
		recording      string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "a fresh answer",
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "submitted", body["status"])

				rawID, ok := body["submission_id"].(string)
				assert.True(t, ok, "submission_id is a string")
				_, err := uuid.Parse(rawID)
				assert.NoError(t, err, "submission_id is a uuid")
			},
		},
		{
			name:           "ValidWithRecording",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "an answer with audio",
			recording:      base64String(1024),
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "submitted", body["status"])
			},
		},
		{
			name:           "RecordingTooLarge",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "an answer with too much audio",
			recording:      base64String((1 << 21) + 100),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "RecordingNotBase64",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "an answer with broken audio",
			recording:      "this is not base64!!",
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "MissingContent",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "",
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "ParticipantNotFound",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  uuid.NewString(),
			content:        "an orphaned answer",
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "ParticipantInOtherCompetition",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "an answer for the wrong competition",
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "LockedParticipant",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionScoring.ID.String(),
			participantID:  lockedParticipant.ID.String(),
			content:        "a late answer",
			expectedStatus: http.StatusConflict,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "locked")
			},
		},
		{
			name:           "NoAuth",
			auth:           nil,
			competitionID:  competitionScoring.ID.String(),
			participantID:  participantPartial.ID.String(),
			content:        "an anonymous answer",
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			payload := fmt.Sprintf(
				`{"competition_id": "%s", "participant_id": "%s", "challenge_id": "challenge-1", "content": "%s", "recording": "%s"}`,
				tt.competitionID,
				tt.participantID,
				tt.content,
				tt.recording,
			)

			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submission/", s.server.URL),
				strings.NewReader(payload),
			)
			s.Require().NoError(err, "failed to construct http request")

			req.Header.Add("Content-Type", "application/json")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.id, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}
}

func (s *ServerTestSuite) Test_SubmissionRecording() {
	recording := []byte("pretend this is audio")
	blobName := "recording-under-test"

	_, err := s.blobClient.UploadBuffer(
		s.T().Context(),
		s.config.Azure.StorageAccount.Containers.Recordings,
		blobName,
		recording,
		nil,
	)
	s.Require().NoError(err, "failed to stage recording blob")

	s.Require().NoError(
		s.tx.Model(&models.Submission{}).
			Where("id = ?", subPartialUnscored.ID).
			Update("recording_path", blobName).
			Error,
	)

	get := func(submissionID string, auth *clientAuth) *resp {
		req, err := http.NewRequest(
			http.MethodGet,
			fmt.Sprintf("%s/v1/submission/%s/recording/", s.server.URL, submissionID),
			nil,
		)
		s.Require().NoError(err, "failed to construct http request")

		if auth != nil {
			req.SetBasicAuth(auth.id, auth.token)
		}

		response, err := doRequest(s.T(), req)
		s.Require().NoError(err)
		return response
	}

	s.Run("Valid", func() {
		resp := get(subPartialUnscored.ID.String(), &clientAuth{authJudge.ID.String(), authToken})
		s.Equal(http.StatusOK, resp.code, "incorrect status code")
		s.Equal(string(recording), resp.body)
	})

	s.Run("NoRecording", func() {
		resp := get(subScoredA.ID.String(), &clientAuth{authJudge.ID.String(), authToken})
		s.Equal(http.StatusNotFound, resp.code, "incorrect status code")
	})

	s.Run("BlobMissing", func() {
		s.Require().NoError(
			s.tx.Model(&models.Submission{}).
				Where("id = ?", subPartialUnscored.ID).
				Update("recording_path", "never-uploaded").
				Error,
		)

		resp := get(subPartialUnscored.ID.String(), &clientAuth{authJudge.ID.String(), authToken})
		s.Equal(http.StatusBadGateway, resp.code, "incorrect status code")
	})

	s.Run("NoAuth", func() {
		resp := get(subPartialUnscored.ID.String(), nil)
		s.Equal(http.StatusUnauthorized, resp.code, "incorrect status code")
	})
}

func (s *ServerTestSuite) Test_SubmissionContent() {
	tests := []struct {
		name           string
		auth           *clientAuth
		submissionID   string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			submissionID:   subPartialUnscored.ID.String(),
			expectedStatus: http.StatusOK,
			expectedBody:   subPartialUnscored.Content,
		},
		{
			name:           "SubmissionNotFound",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			submissionID:   uuid.NewString(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "AdminPermissionDenied",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			submissionID:   subPartialUnscored.ID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "NoAuth",
			auth:           nil,
			submissionID:   subPartialUnscored.ID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/submission/%s/content/", s.server.URL, tt.submissionID),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.id, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.expectedBody != "" {
				s.Equal(tt.expectedBody, resp.body)
			}
		})
	}
}
