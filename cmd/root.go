package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sidekick",
	Short: "Editor AI assistant backend",
	Long: `Sidekick is the backend for an editor AI assistant. It sends file and
chat content to an OpenAI-compatible inference endpoint (local or remote)
with retries, a model fallback chain, and a circuit breaker, and keeps
per-session conversation history on disk.

Available commands:
  chat      - Interactive chat (or one-shot via piped stdin)
  sessions  - List, show, and delete saved sessions
  serve     - Run the editor bridge server
  version   - Print the version`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
