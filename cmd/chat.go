package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/session"
	"github.com/jmorrell-dev/sidekick/pkg/types"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the assistant",
	Long: `Starts an interactive chat session. With an argument or piped stdin the
message is processed once and the reply printed. Slash commands (/help,
/analyze, ...) work in both modes.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session ID to continue (default: new session)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := session.OpenStore(cfg)
	if err != nil {
		return err
	}
	manager := session.NewManager(cfg, store, llm.NewClient(cfg), nil)

	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// One-shot: explicit argument, or piped stdin.
	if len(args) > 0 {
		return processOnce(cmd, manager, sessionID, strings.Join(args, " "))
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text := strings.TrimSpace(string(input))
		if text == "" {
			return fmt.Errorf("no input provided")
		}
		return processOnce(cmd, manager, sessionID, text)
	}

	return repl(cmd, manager, sessionID)
}

func processOnce(cmd *cobra.Command, manager *session.Manager, sessionID, text string) error {
	msg, err := manager.ProcessMessage(cmd.Context(), sessionID, text, types.ChatContext{})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg.Content)
	return nil
}

func repl(cmd *cobra.Command, manager *session.Manager, sessionID string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sidekick chat (session %s). Type /help for commands, /exit or Ctrl+D to quit.\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/exit" || text == "/quit" {
			return nil
		}

		msg, err := manager.ProcessMessage(cmd.Context(), sessionID, text, types.ChatContext{})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", msg.Content)
	}
}
