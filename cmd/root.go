package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatbridge",
	Short: "One-way Slack to Google Chat message bridge",
	Long: `chatbridge receives Slack Events API webhooks, verifies their signatures,
resolves channel and user names via the Slack Web API, and relays qualifying
messages to per-channel Google Chat incoming webhooks.`,
}

func Execute() error {
	return rootCmd.Execute()
}
