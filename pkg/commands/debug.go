package commands

import "context"

// DebugCommand implements the /debug slash command.
type DebugCommand struct{}

func (c *DebugCommand) Name() string { return "debug" }

func (c *DebugCommand) Description() string {
	return "Hunt for bugs in a file, selection, or snippet"
}

func (c *DebugCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	code, label, ok := resolveCode(args, env)
	if !ok {
		return &Result{Content: noCodeGuidance("debug")}, nil
	}
	return completeOverCode(ctx, env, "debug",
		"You are debugging someone else's code. Identify likely bugs: off-by-one errors, nil/undefined access, unhandled failure paths, race conditions, and logic mistakes. For each finding give the location, why it is wrong, and a fix.",
		"Find bugs in this code.", label, code)
}
