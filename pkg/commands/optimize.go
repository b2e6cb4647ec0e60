package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// OptimizeCommand implements the /optimize slash command.
type OptimizeCommand struct{}

func (c *OptimizeCommand) Name() string { return "optimize" }

func (c *OptimizeCommand) Description() string {
	return "Rewrite a file, selection, or snippet for performance and clarity"
}

// Execute asks the model for an optimized rewrite and, when the response
// carries a code block, appends a patch against the original so the user can
// see exactly what changed.
func (c *OptimizeCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	code, label, ok := resolveCode(args, env)
	if !ok {
		return &Result{Content: noCodeGuidance("optimize")}, nil
	}

	result, err := completeOverCode(ctx, env, "optimize",
		"You are optimizing code. Produce a rewritten version that is faster or clearer without changing behavior, inside a single fenced code block, followed by a short list of what you changed and why.",
		"Optimize this code.", label, code)
	if err != nil {
		return nil, err
	}

	if patch := diffAgainstOriginal(code, result.Response.Suggestions); patch != "" {
		result.Content += "\n\nChanges against the original:\n```diff\n" + patch + "```"
	}
	return result, nil
}

// diffAgainstOriginal renders a patch between the original code and the first
// code suggestion in the response, or "" when there is nothing to diff.
func diffAgainstOriginal(original string, suggestions []types.Suggestion) string {
	var rewritten string
	for _, s := range suggestions {
		if s.Kind == "code" {
			rewritten = s.Text
			break
		}
	}
	if rewritten == "" || strings.TrimSpace(rewritten) == strings.TrimSpace(original) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(original, rewritten)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			fmt.Fprintf(&sb, "%s%s\n", prefix, line)
		}
	}
	return sb.String()
}
