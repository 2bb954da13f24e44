package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

func (s *ServerTestSuite) Test_Distribute() {
	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		competitionID  string
		payload        string
		expectedStatus int
	}{
		{
			name:           "ValidRoundRobin",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.EqualValues(t, 10, body["assigned_count"])

				perJudge, ok := body["per_judge"].(map[string]any)
				assert.True(t, ok, "per_judge is an object")
				assert.Len(t, perJudge, 3)
				// cyclic over judges in id order: 10 across 3 is 4/3/3
				assert.EqualValues(t, 4, perJudge[judgeUncapped.ID.String()])
				assert.EqualValues(t, 3, perJudge[judgeAlpha.ID.String()])
				assert.EqualValues(t, 3, perJudge[judgeBeta.ID.String()])
			},
		},
		{
			name:           "ValidWeighted",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "weighted"}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.EqualValues(t, 10, body["assigned_count"])

				perJudge, ok := body["per_judge"].(map[string]any)
				assert.True(t, ok, "per_judge is an object")
				// judges without a declared capacity are skipped
				assert.Len(t, perJudge, 2)
				assert.NotContains(t, perJudge, judgeUncapped.ID.String())
				assert.EqualValues(t, 5, perJudge[judgeAlpha.ID.String()])
				assert.EqualValues(t, 5, perJudge[judgeBeta.ID.String()])
			},
		},
		{
			name:          "ValidWeightedTruncated",
			auth:          &clientAuth{authAdmin.ID.String(), authToken},
			competitionID: competition.ID.String(),
			payload: fmt.Sprintf(
				`{"top_n": 10, "strategy": "weighted", "capacities": {"%s": 3, "%s": 3}}`,
				judgeAlpha.ID.String(),
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				// shortfall policy is truncate, the last 4 stay unassigned
				assert.EqualValues(t, 6, body["assigned_count"])
			},
		},
		{
			name:          "ValidWeightedSmallTopN",
			auth:          &clientAuth{authAdmin.ID.String(), authToken},
			competitionID: competition.ID.String(),
			payload:       `{"top_n": 3, "strategy": "weighted"}`,
			expectedStatus: http.StatusOK,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.EqualValues(t, 3, body["assigned_count"])

				perJudge, ok := body["per_judge"].(map[string]any)
				assert.True(t, ok, "per_judge is an object")
				// first fit fills the first capacitated judge before the next
				assert.EqualValues(t, 3, perJudge[judgeAlpha.ID.String()])
			},
		},
		{
			name:          "NoCapacity",
			auth:          &clientAuth{authAdmin.ID.String(), authToken},
			competitionID: competition.ID.String(),
			payload: fmt.Sprintf(
				`{"top_n": 5, "strategy": "weighted", "capacities": {"%s": 0, "%s": 0}}`,
				judgeAlpha.ID.String(),
				judgeBeta.ID.String(),
			),
			expectedStatus: http.StatusConflict,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "no capacity")
			},
		},
		{
			name:           "NoParticipants",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competitionEmpty.ID.String(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusNotFound,
			bodyTester: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "no participants")
			},
		},
		{
			name:           "CompetitionNotFound",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  uuid.NewString(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "ZeroTopN",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 0, "strategy": "round-robin"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "UnknownStrategy",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "alphabetical"}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "CapacityKeyNotAJudgeID",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "weighted", "capacities": {"notauuid": 3}}`,
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "NoAuth",
			auth:           nil,
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:           "JudgePermissionDenied",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
		{
			name:           "InactiveAuth",
			auth:           &clientAuth{authInactive.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			payload:        `{"top_n": 10, "strategy": "round-robin"}`,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthorizedBodyTester,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/competition/%s/distribute/", s.server.URL, tt.competitionID),
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

func (s *ServerTestSuite) Test_Distribute_RejectShortfall() {
	previous := s.config.Distribution.ShortfallPolicy
	s.config.Distribution.ShortfallPolicy = types.ShortfallReject
	defer func() { s.config.Distribution.ShortfallPolicy = previous }()

	payload := fmt.Sprintf(
		`{"top_n": 10, "strategy": "weighted", "capacities": {"%s": 3, "%s": 3}}`,
		judgeAlpha.ID.String(),
		judgeBeta.ID.String(),
	)

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/competition/%s/distribute/", s.server.URL, competition.ID.String()),
		strings.NewReader(payload),
	)
	s.Require().NoError(err, "failed to construct http request")
	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(authAdmin.ID.String(), authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)

	s.Equal(http.StatusConflict, resp.code, "incorrect status code")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
	s.Contains(body["message"], "cannot cover")
}

func (s *ServerTestSuite) Test_Distribute_ReplacesPreviousRun() {
	distribute := func(payload string) map[string]any {
		req, err := http.NewRequest(
			http.MethodPost,
			fmt.Sprintf("%s/v1/competition/%s/distribute/", s.server.URL, competition.ID.String()),
			strings.NewReader(payload),
		)
		s.Require().NoError(err, "failed to construct http request")
		req.Header.Add("Content-Type", "application/json")
		req.SetBasicAuth(authAdmin.ID.String(), authToken)

		resp, err := doRequest(s.T(), req)
		s.Require().NoError(err)
		s.Require().Equal(http.StatusOK, resp.code, "distribution did not succeed")

		body := make(map[string]any)
		s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
		return body
	}

	distribute(`{"top_n": 10, "strategy": "round-robin"}`)
	second := distribute(`{"top_n": 10, "strategy": "weighted"}`)

	req, err := http.NewRequest(
		http.MethodGet,
		fmt.Sprintf("%s/v1/competition/%s/assignments/", s.server.URL, competition.ID.String()),
		nil,
	)
	s.Require().NoError(err, "failed to construct http request")
	req.SetBasicAuth(authAdmin.ID.String(), authToken)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.code)

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

	assignments, ok := body["assignments"].([]any)
	s.Require().True(ok, "assignments is a list")
	// all three round-robin rows were replaced by the two weighted ones
	s.Len(assignments, 2)

	total := 0
	for _, raw := range assignments {
		row, ok := raw.(map[string]any)
		s.Require().True(ok, "assignment row is an object")
		s.Equal(second["run_id"], row["run_id"], "stale run id survived the overwrite")

		participants, ok := row["participants"].([]any)
		s.Require().True(ok, "participants is a list")
		s.EqualValues(len(participants), row["assigned_count"])
		total += len(participants)
	}
	s.Equal(10, total)
}

func (s *ServerTestSuite) Test_ListAssignments() {
	tests := []struct {
		name           string
		auth           *clientAuth
		competitionID  string
		expectedStatus int
	}{
		{
			name:           "ValidEmpty",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "CompetitionNotFound",
			auth:           &clientAuth{authAdmin.ID.String(), authToken},
			competitionID:  uuid.NewString(),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "JudgePermissionDenied",
			auth:           &clientAuth{authJudge.ID.String(), authToken},
			competitionID:  competition.ID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "NoAuth",
			auth:           nil,
			competitionID:  competition.ID.String(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req, err := http.NewRequest(
				http.MethodGet,
				fmt.Sprintf("%s/v1/competition/%s/assignments/", s.server.URL, tt.competitionID),
				nil,
			)
			s.Require().NoError(err, "failed to construct http request")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.id, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")

			if tt.expectedStatus == http.StatusOK {
				body := make(map[string]any)
				s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
				s.Empty(body["assignments"])
			}
		})
	}
}
