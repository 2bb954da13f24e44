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

func (s *ServerTestSuite) Test_SubmitScore() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		submissionID   string
		payload        string
		expectedStatus int
	}{
		{
			name:         "Valid",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:         "ValidWithComment",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 10, "comment": "flawless"}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:         "ScoreTooLow",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 0}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "ScoreTooHigh",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 11}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "MissingJudge",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			submissionID:   subPartialUnscored.ID.String(),
			payload:        `{"score": 7}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "CommentTooLong",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7, "comment": "%s"}`,
				judgeBeta.ID.String(),
				longString(5000),
			),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:         "JudgeNotFound",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				uuid.NewString(),
			),
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:         "SubmissionNotFound",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: uuid.NewString(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:         "LockedParticipant",
			auth:         &clientAuth{authJudge.ID.String(), authToken},
			submissionID: subLocked.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusConflict,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "locked")
			},
		},
		{
			name:         "NoAuth",
			auth:         nil,
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:         "AdminPermissionDenied",
			auth:         &clientAuth{authAdmin.ID.String(), authToken},
			submissionID: subPartialUnscored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "score": 7}`,
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submission/%s/score/", s.server.URL, tt.submissionID),
				strings.NewReader(tt.payload),
			)
			s.Require().NoError(err, "failed to construct http request")

			req.Header.Add("Content-Type", "application/json")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.id, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.bodyTester != nil {
				body := make(map[string]any)
				s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
				tt.bodyTester(s.T(), body)
			}
		})
	}
}

func (s *ServerTestSuite) Test_SubmitScore_Overwrite() {
	score := func(value int) {
		payload := fmt.Sprintf(
			`{"judge_id": "%s", "score": %d}`,
			judgeBeta.ID.String(),
			value,
		)

		req, err := http.NewRequest(
			http.MethodPost,
			fmt.Sprintf("%s/v1/submission/%s/score/", s.server.URL, subPartialUnscored.ID.String()),
			strings.NewReader(payload),
		)
		s.Require().NoError(err, "failed to construct http request")
		req.Header.Add("Content-Type", "application/json")
		req.SetBasicAuth(authJudge.ID.String(), authToken)

		resp, err := doRequest(s.T(), req)
		s.Require().NoError(err)
		s.Require().Equal(http.StatusNoContent, resp.code, "score submission failed")
	}

	score(3)
	score(8)

	var rows []models.JudgeScore
	err := s.tx.
		Where("submission_id = ? AND judge_id = ?", subPartialUnscored.ID, judgeBeta.ID).
		Find(&rows).
		Error
	s.Require().NoError(err, "failed to read back scores")

	// the second submission overwrote the first instead of adding a row
	s.Require().Len(rows, 1)
	s.Equal(8, rows[0].Score)
}
