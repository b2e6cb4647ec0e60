package commands

import (
	"context"

	"github.com/jmorrell-dev/sidekick/pkg/llm"
)

// AnalyzeCommand implements the /analyze slash command.
type AnalyzeCommand struct{}

// Name returns the command name.
func (c *AnalyzeCommand) Name() string { return "analyze" }

// Description returns the command description.
func (c *AnalyzeCommand) Description() string {
	return "Analyze a file, the current selection, or a code snippet"
}

// Execute resolves code by priority (argument, selection, active file) and
// asks the model for a structured review. With nothing to analyze it replies
// with guidance instead of calling the model.
func (c *AnalyzeCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	code, label, ok := resolveCode(args, env)
	if !ok {
		return &Result{Content: noCodeGuidance("analyze")}, nil
	}
	return completeOverCode(ctx, env, "analyze",
		"You are a code reviewer. Analyze the given code: describe what it does, point out bugs, risky patterns, and missing error handling. Be specific and cite line-level details.",
		"Analyze this code.", label, code)
}

// completeOverCode runs the standard code-command flow: command-specific
// generation parameters, a system prompt, and the code as the user turn.
func completeOverCode(ctx context.Context, env *Env, command, systemPrompt, instruction, label, code string) (*Result, error) {
	params := env.Config.ParamsFor(command)
	resp, err := env.Client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: codePrompt(instruction, label, code)},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Content: resp.Content, Response: resp}, nil
}
