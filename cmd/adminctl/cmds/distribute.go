package cmds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"

	"github.com/etlonline/prompt-competition/assignment-service/internal/types"
)

var (
	competitionID string
	topN          int
	strategy      string
	capacities    []string
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Run a distribution for a competition",
	RunE: func(cmd *cobra.Command, _ []string) error {
		overrides := map[string]int{}
		for _, pair := range capacities {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("capacity %q is not judge-id=count", pair)
			}

			count, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("capacity %q is not judge-id=count: %w", pair, err)
			}

			overrides[key] = count
		}

		request := types.DistributionRequest{
			TopN:     topN,
			Strategy: types.Strategy(strategy),
		}
		if len(overrides) > 0 {
			request.Capacities = overrides
		}

		body, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		url := fmt.Sprintf("%s/v1/competition/%s/distribute/", serverURL, competitionID)
		req, err := http.NewRequestWithContext(
			cmd.Context(),
			http.MethodPost,
			url,
			bytes.NewReader(body),
		)
		if err != nil {
			return fmt.Errorf("failed to construct request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(authID, authToken)

		httpClient := retryablehttp.NewClient()
		httpClient.RetryMax = 3

		resp, err := httpClient.StandardClient().Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("distribution failed: %d: %s", resp.StatusCode, respBody)
		}

		var result types.DistributionResponse
		err = json.Unmarshal(respBody, &result)
		if err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}

		fmt.Printf("run %s assigned %d participants\n", result.RunID, result.AssignedCount)
		for judgeID, count := range result.PerJudge {
			fmt.Printf("  %s: %d\n", judgeID, count)
		}

		if topN > result.AssignedCount {
			fmt.Printf("warning: %d participants left unassigned\n", topN-result.AssignedCount)
		}

		return nil
	},
}

func init() {
	distributeCmd.Flags().
		StringVar(&competitionID, "competition", "", "Competition to distribute")
	distributeCmd.Flags().IntVar(&topN, "top-n", 0, "Number of top ranked participants to assign")
	distributeCmd.Flags().
		StringVar(&strategy, "strategy", string(types.StrategyRoundRobin), `"round-robin" or "weighted"`)
	distributeCmd.Flags().
		StringArrayVar(&capacities, "capacity", nil, "Per judge capacity override as judge-id=count")

	for _, flag := range []string{"competition", "top-n"} {
		err := distributeCmd.MarkFlagRequired(flag)
		if err != nil {
			panic("Internal error contact a contributor [distribute-flag-required]")
		}
	}

	rootCmd.AddCommand(distributeCmd)
}
