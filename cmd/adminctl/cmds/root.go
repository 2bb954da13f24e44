package cmds

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authID    string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:           "adminctl",
	Short:         "Administrative helper for the assignment service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		StringVar(&serverURL, "server", "http://localhost:1323", "Base URL of the assignment service")
	rootCmd.PersistentFlags().StringVar(&authID, "auth-id", "", "API client id")
	rootCmd.PersistentFlags().StringVar(&authToken, "auth-token", "", "API client token")
}
