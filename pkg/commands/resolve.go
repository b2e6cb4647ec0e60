package commands

import (
	"fmt"
	"strings"

	"github.com/jmorrell-dev/sidekick/pkg/types"
	"github.com/jmorrell-dev/sidekick/pkg/workspace"
)

// resolveCode finds the code a command should operate on, in priority order:
// explicit argument, editor selection, active file. label describes where the
// code came from for use in prompts and replies.
func resolveCode(args []string, env *Env) (code string, label string, ok bool) {
	if len(args) > 0 {
		arg := strings.Join(args, " ")
		if LooksLikePath(arg) {
			if text, found := workspace.ReadFileContent(env.Editor, arg); found {
				return text, arg, true
			}
			// Reading failed: the argument was a snippet after all.
		}
		return arg, "the provided snippet", true
	}

	if env.Editor != nil {
		if sel, found := env.Editor.Selection(); found && sel != "" {
			return sel, "the current selection", true
		}
		if ref, found := env.Editor.ActiveFile(); found {
			if text, read := workspace.ReadFileContent(env.Editor, ref.Path); read {
				return text, ref.Path, true
			}
		}
	}

	return "", "", false
}

// noCodeGuidance is the reply when a code command has nothing to work on.
func noCodeGuidance(command string) string {
	return fmt.Sprintf("Nothing to %s. Open a file, select some code, or pass a path or snippet: /%s <path |code>", command, command)
}

// ChatSystemPrompt builds the system prompt for the conversational path from
// the current context snapshot.
func ChatSystemPrompt(ctx types.ChatContext) string {
	var b strings.Builder
	b.WriteString("You are Sidekick, a concise coding assistant embedded in the user's editor. ")
	b.WriteString("Ground your answers in the editor context below when it is relevant.\n")

	if ctx.ActiveFile != nil {
		fmt.Fprintf(&b, "Active file: %s\n", ctx.ActiveFile.Path)
	}
	if ctx.Selection != "" {
		fmt.Fprintf(&b, "The user has %d characters of code selected.\n", len(ctx.Selection))
	}
	if n := len(ctx.WorkspaceFiles); n > 0 {
		fmt.Fprintf(&b, "The workspace contains %d files.\n", n)
	}
	return b.String()
}

// codePrompt renders a code-bearing user prompt with its origin label.
func codePrompt(instruction, label, code string) string {
	return fmt.Sprintf("%s\n\nCode (%s):\n```\n%s\n```", instruction, label, code)
}
