package commands

import "context"

// ExplainCommand implements the /explain slash command.
type ExplainCommand struct{}

func (c *ExplainCommand) Name() string { return "explain" }

func (c *ExplainCommand) Description() string {
	return "Explain what a file, selection, or snippet does"
}

func (c *ExplainCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	code, label, ok := resolveCode(args, env)
	if !ok {
		return &Result{Content: noCodeGuidance("explain")}, nil
	}
	return completeOverCode(ctx, env, "explain",
		"You are a patient teacher. Explain the given code to a developer unfamiliar with it: overall purpose first, then the important pieces in reading order. Plain language, no filler.",
		"Explain this code.", label, code)
}
