package commands

import (
	"context"
	"fmt"
	"strings"
)

// ContextCommand implements the /context slash command: a synthesized report
// of session state, no model call.
type ContextCommand struct{}

func (c *ContextCommand) Name() string { return "context" }

func (c *ContextCommand) Description() string {
	return "Show what the assistant currently knows about your editor state"
}

func (c *ContextCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	var b strings.Builder
	b.WriteString("Current context:\n")

	if env.Session != nil {
		fmt.Fprintf(&b, "  session:    %s (%d messages)\n", env.Session.ID, len(env.Session.Messages))
		sc := env.Session.Context
		if env.Aggregator != nil {
			// Report what the editor looks like right now, not just the last
			// snapshot the session saw.
			sc = sc.Merge(env.Aggregator.CurrentContext())
		}
		if sc.ActiveFile != nil {
			fmt.Fprintf(&b, "  active file: %s\n", sc.ActiveFile.Path)
		} else {
			b.WriteString("  active file: none\n")
		}
		if sc.Selection != "" {
			fmt.Fprintf(&b, "  selection:   %d characters\n", len(sc.Selection))
		} else {
			b.WriteString("  selection:   none\n")
		}
		fmt.Fprintf(&b, "  workspace:   %d files\n", len(sc.WorkspaceFiles))
	} else {
		b.WriteString("  no session yet\n")
	}

	return &Result{Content: b.String()}, nil
}
