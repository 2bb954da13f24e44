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

func (s *ServerTestSuite) Test_CreateCompetition() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		payload        string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"name": "autumn open", "round_id": "round-2"}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				rawID, ok := body["competition_id"].(string)
				assert.True(t, ok, "competition_id is a string")
				_, err := uuid.Parse(rawID)
				assert.NoError(t, err, "competition_id is a uuid")
			},
		},
		{
			name:           "MissingName",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"round_id": "round-2"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "NameTooLong",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        fmt.Sprintf(`{"name": "%s", "round_id": "round-2"}`, longString(300)),
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "AdminPermissionDenied",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			payload:        `{"name": "autumn open", "round_id": "round-2"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:           "NoAuth",
			auth:           nil,
			payload:        `{"name": "autumn open", "round_id": "round-2"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/competition/", s.server.URL),
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
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}
}

func (s *ServerTestSuite) Test_CreateParticipant() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		competitionID  string
		payload        string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			competitionID:  competitionEmpty.ID.String(),
			payload:        `{"display_name": "new entrant", "email": "entrant@example.com", "score": 12.5}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				rawID, ok := body["participant_id"].(string)
				assert.True(t, ok, "participant_id is a string")
				_, err := uuid.Parse(rawID)
				assert.NoError(t, err, "participant_id is a uuid")
			},
		},
		{
			name:           "BadEmail",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			competitionID:  competitionEmpty.ID.String(),
			payload:        `{"display_name": "new entrant", "email": "not an email", "score": 12.5}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "NegativeScore",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			competitionID:  competitionEmpty.ID.String(),
			payload:        `{"display_name": "new entrant", "email": "entrant@example.com", "score": -1}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "CompetitionNotFound",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			competitionID:  uuid.NewString(),
			payload:        `{"display_name": "new entrant", "email": "entrant@example.com", "score": 12.5}`,
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "JudgePermissionDenied",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competitionEmpty.ID.String(),
			payload:        `{"display_name": "new entrant", "email": "entrant@example.com", "score": 12.5}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/competition/%s/participant/", s.server.URL, tt.competitionID),
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
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}
}

func (s *ServerTestSuite) Test_CreateJudge() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		payload        string
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"display_name": "judge gamma", "email": "gamma@example.com", "capacity": 4}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				rawID, ok := body["judge_id"].(string)
				assert.True(t, ok, "judge_id is a string")
				_, err := uuid.Parse(rawID)
				assert.NoError(t, err, "judge_id is a uuid")
			},
		},
		{
			name:           "ValidNoCapacity",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"display_name": "judge delta", "email": "delta@example.com"}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body, "judge_id")
			},
		},
		{
			name:           "NegativeCapacity",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"display_name": "judge epsilon", "email": "epsilon@example.com", "capacity": -1}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "MissingEmail",
			auth:           &clientAuth{authManager.ID.String(), authToken},
			payload:        `{"display_name": "judge zeta"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "JudgePermissionDenied",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			payload:        `{"display_name": "judge gamma", "email": "gamma@example.com"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/judge/", s.server.URL),
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
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}
}

func (s *ServerTestSuite) Test_PatchJudge() {
	patch := func(judgeID string, payload string) *resp {
		req, err := http.NewRequest(
			http.MethodPatch,
			fmt.Sprintf("%s/v1/judge/%s/", s.server.URL, judgeID),
			strings.NewReader(payload),
		)
		s.Require().NoError(err, "failed to construct http request")
		req.Header.Add("Content-Type", "application/json")
		req.SetBasicAuth(authManager.ID.String(), authToken)

		response, err := doRequest(s.T(), req)
		s.Require().NoError(err)
		return response
	}

	s.Run("SetCapacity", func() {
		resp := patch(judgeUncapped.ID.String(), `{"capacity": 6}`)
		s.Equal(http.StatusOK, resp.code, "incorrect status code")

		var judge models.Judge
		s.Require().NoError(s.tx.First(&judge, judgeUncapped.ID).Error)
		s.Require().True(judge.Capacity.Valid, "capacity was not set")
		s.Equal(6, judge.Capacity.V)
	})

	s.Run("ClearCapacity", func() {
		resp := patch(judgeAlpha.ID.String(), `{"capacity": null}`)
		s.Equal(http.StatusOK, resp.code, "incorrect status code")

		var judge models.Judge
		s.Require().NoError(s.tx.First(&judge, judgeAlpha.ID).Error)
		s.False(judge.Capacity.Valid, "capacity was not cleared")
	})

	s.Run("OmittedCapacityUnchanged", func() {
		resp := patch(judgeBeta.ID.String(), `{}`)
		s.Equal(http.StatusOK, resp.code, "incorrect status code")

		var judge models.Judge
		s.Require().NoError(s.tx.First(&judge, judgeBeta.ID).Error)
		s.Require().True(judge.Capacity.Valid, "capacity should be untouched")
		s.Equal(5, judge.Capacity.V)
	})

	s.Run("NegativeCapacity", func() {
		resp := patch(judgeBeta.ID.String(), `{"capacity": -3}`)
		s.Equal(http.StatusBadRequest, resp.code, "incorrect status code")

		body := make(map[string]any)
		s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
		assertErrorBodyWithFields(s.T(), body)
	})

	s.Run("JudgeNotFound", func() {
		resp := patch(uuid.NewString(), `{"capacity": 6}`)
		s.Equal(http.StatusNotFound, resp.code, "incorrect status code")
	})
}
