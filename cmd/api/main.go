package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskmeet",
	Short: "Realtime chat and call signaling for the task manager",
	Long: `taskmeet serves the REST API and the websocket endpoint used for chat
messages and WebRTC signaling. Running it without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
