package commands

import "context"

// SuggestCommand implements the /suggest slash command.
type SuggestCommand struct{}

func (c *SuggestCommand) Name() string { return "suggest" }

func (c *SuggestCommand) Description() string {
	return "Suggest improvements for a file, selection, or snippet"
}

func (c *SuggestCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	code, label, ok := resolveCode(args, env)
	if !ok {
		return &Result{Content: noCodeGuidance("suggest")}, nil
	}
	return completeOverCode(ctx, env, "suggest",
		"You are a senior engineer doing a review pass. Suggest concrete improvements to the given code as a bulleted list, each with a short rationale. Include code blocks only where they clarify a suggestion.",
		"Suggest improvements to this code.", label, code)
}
