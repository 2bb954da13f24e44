package cmds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/etlonline/prompt-competition/assignment-service/internal/queue"
)

var (
	queueAccountName string
	queueAccountKey  string
	queueURL         string
	queueName        string
	pollTimeout      time.Duration
)

type assignmentNotification struct {
	CompetitionID string `json:"competition_id"`
	RunID         string `json:"run_id"`
	JudgeID       string `json:"judge_id"`
	AssignedCount int    `json:"assigned_count"`
}

type notificationPrinter struct{}

func (notificationPrinter) Handle(_ context.Context, message []byte) error {
	var notification assignmentNotification
	if err := json.Unmarshal(message, &notification); err != nil {
		// not one of ours, drop it instead of requeueing forever
		return queue.WrapPoisonError(err)
	}

	fmt.Printf(
		"run %s: judge %s received %d participants (competition %s)\n",
		notification.RunID,
		notification.JudgeID,
		notification.AssignedCount,
		notification.CompetitionID,
	)

	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch-assignments",
	Short: "Tail the assignment notification queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		queuer, err := queue.NewAzureQueuer(
			queueAccountName,
			queueAccountKey,
			queueURL,
			queueName,
		)
		if err != nil {
			return fmt.Errorf("failed to construct queuer: %w", err)
		}

		handler := notificationPrinter{}
		for {
			if err := queuer.Dequeue(cmd.Context(), pollTimeout, handler); err != nil {
				fmt.Printf("failed to handle message: %v\n", err)
			}

			select {
			case <-cmd.Context().Done():
				return nil
			default:
			}
		}
	},
}

func init() {
	watchCmd.Flags().
		StringVar(&queueAccountName, "account-name", "", "Storage account name")
	watchCmd.Flags().StringVar(&queueAccountKey, "account-key", "", "Storage account key")
	watchCmd.Flags().StringVar(&queueURL, "queue-url", "", "Queue service URL")
	watchCmd.Flags().
		StringVar(&queueName, "queue", "assignments", "Queue holding assignment notifications")
	watchCmd.Flags().
		DurationVar(&pollTimeout, "poll-timeout", 10*time.Minute, "How long to wait for a message")

	for _, flag := range []string{"account-name", "account-key", "queue-url"} {
		err := watchCmd.MarkFlagRequired(flag)
		if err != nil {
			panic("Internal error contact a contributor [watch-flag-required]")
		}
	}

	rootCmd.AddCommand(watchCmd)
}
