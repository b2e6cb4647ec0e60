package commands

import (
	"context"
	"fmt"
	"strings"
)

// HelpCommand implements the /help slash command. It answers from the
// registry alone and never touches the model, the session, or the context.
type HelpCommand struct {
	registry *Registry
}

func (c *HelpCommand) Name() string { return "help" }

func (c *HelpCommand) Description() string {
	return "Show available slash commands"
}

func (c *HelpCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	var b strings.Builder
	b.WriteString("Sidekick commands:\n\n")
	for _, cmd := range c.registry.List() {
		fmt.Fprintf(&b, "  /%-10s %s\n", cmd.Name(), cmd.Description())
	}
	b.WriteString("\nAnything without a leading / is sent to the model as conversation.")
	return &Result{Content: b.String()}, nil
}
