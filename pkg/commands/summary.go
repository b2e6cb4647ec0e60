package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// SummaryCommand implements the /summary slash command: a model call over
// the trailing slice of the conversation.
type SummaryCommand struct{}

func (c *SummaryCommand) Name() string { return "summary" }

func (c *SummaryCommand) Description() string {
	return "Summarize the recent conversation"
}

func (c *SummaryCommand) Execute(ctx context.Context, args []string, env *Env) (*Result, error) {
	if env.Session == nil || len(env.Session.Messages) == 0 {
		return &Result{Content: "Nothing to summarize yet."}, nil
	}

	window := env.Config.ContextWindow()
	msgs := env.Session.Messages
	if window > 0 && len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}

	var transcript strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	params := env.Config.ParamsFor("summary")
	resp, err := env.Client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: string(types.RoleSystem), Content: "Summarize the following conversation between a developer and their coding assistant. Capture decisions made, code discussed, and open threads, in a few short paragraphs."},
			{Role: string(types.RoleUser), Content: transcript.String()},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Content: resp.Content, Response: resp}, nil
}
