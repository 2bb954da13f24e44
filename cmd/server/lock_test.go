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
	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

func (s *ServerTestSuite) Test_LockParticipant() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		participantID  string
		payload        string
		expectedStatus int
	}{
		{
			name:          "IncompleteScoring",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: participantPartial.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusConflict,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "incomplete scoring")

				fields, ok := body["fields"].(map[string]any)
				assert.True(t, ok, "fields is an object")
				assert.Equal(t, "1", fields["remaining"])
			},
		},
		{
			name:          "AlreadyLocked",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: lockedParticipant.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusConflict,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "already locked")
			},
		},
		{
			name:          "WrongConfirmation",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "confirm lock"}`,
				judgeAlpha.ID.String(),
			),
			expectedStatus: http.StatusBadRequest,
			bodyTester: func(t *testing.T, body map[string]any) {
				assertErrorBodyWithFields(t, body)

				fields, ok := body["fields"].(map[string]any)
				assert.True(t, ok, "fields is an object")
				assert.Contains(t, fields, "confirmation")
			},
		},
		{
			name:          "MissingConfirmation",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s"}`,
				judgeAlpha.ID.String(),
			),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:          "JudgeNotFound",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				uuid.NewString(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:          "ParticipantNotFound",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: uuid.NewString(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:          "NoAuth",
			auth:          nil,
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:          "ManagerPermissionDenied",
			auth:          &clientAuth{authManager.ID.String(), authToken},
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			// runs last so the earlier cases see an unlocked participant
			name:          "Valid",
			auth:          &clientAuth{authJudge.ID.String(), authToken},
			participantID: participantScored.ID.String(),
			payload: fmt.Sprintf(
				`{"judge_id": "%s", "confirmation": "%s"}`,
				judgeAlpha.ID.String(),
				types.LockConfirmation,
			),
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/participant/%s/lock/", s.server.URL, tt.participantID),
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

	var locked models.Participant
	s.Require().NoError(s.tx.First(&locked, participantScored.ID).Error)
	s.True(locked.Locked, "participant was not locked")
	s.Require().True(locked.LockedBy.Valid, "locked_by was not recorded")
	s.Equal(judgeAlpha.ID, locked.LockedBy.V)
	s.True(locked.LockedAt.Valid, "locked_at was not recorded")

	var openSubmissions int64
	s.Require().NoError(
		s.tx.Model(&models.Submission{}).
			Where("participant_id = ? AND status = ?", participantScored.ID, types.SubmissionStatusSubmitted).
			Count(&openSubmissions).
			Error,
	)
	s.EqualValues(0, openSubmissions, "submissions were not moved to judgement_complete")
}

func (s *ServerTestSuite) Test_LockParticipant_FreezesScores() {
	lockPayload := fmt.Sprintf(
		`{"judge_id": "%s", "confirmation": "%s"}`,
		judgeAlpha.ID.String(),
		types.LockConfirmation,
	)

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/participant/%s/lock/", s.server.URL, participantScored.ID.String()),
		strings.NewReader(lockPayload),
	)
	s.Require().NoError(err, "failed to construct http request")
	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(authJudge.ID.String(), authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusNoContent, resp.code, "lock failed")

	// scoring against the locked participant's submissions now conflicts
	scorePayload := fmt.Sprintf(
		`{"judge_id": "%s", "score": 2}`,
		judgeBeta.ID.String(),
	)

	req, err = http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/submission/%s/score/", s.server.URL, subScoredA.ID.String()),
		strings.NewReader(scorePayload),
	)
	s.Require().NoError(err, "failed to construct http request")
	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(authJudge.ID.String(), authToken)

	resp, err = doRequest(s.T(), req)
	s.Require().NoError(err)

	s.Equal(http.StatusConflict, resp.code, "incorrect status code")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
	s.Contains(body["message"], "locked")
}
