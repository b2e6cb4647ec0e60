package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/types"
	"github.com/jmorrell-dev/sidekick/pkg/workspace"
)

// Completer is the slice of the LLM client the handlers need.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Env carries the collaborators a command handler may use.
type Env struct {
	Session    *types.Session
	Client     Completer
	Editor     workspace.Editor
	Aggregator *workspace.Aggregator
	Config     *config.Config
}

// Result is what a handler produces. Response is nil when the handler
// answered without a model call.
type Result struct {
	Content  string
	Command  string
	Response *llm.Response
}

// Command represents a slash command.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args []string, env *Env) (*Result, error)
}

// Registry manages all available slash commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates a registry with the built-in commands registered.
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]Command)}

	r.Register(&AnalyzeCommand{})
	r.Register(&SuggestCommand{})
	r.Register(&ExplainCommand{})
	r.Register(&OptimizeCommand{})
	r.Register(&DebugCommand{})
	r.Register(&HelpCommand{registry: r})
	r.Register(&SummaryCommand{})
	r.Register(&ContextCommand{})

	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// IsSlashCommand checks if input starts with the command prefix.
func IsSlashCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Dispatch parses a slash input and runs the matching handler. An unknown
// command is a normal informational outcome, not an error: the result points
// the user at /help.
func (r *Registry) Dispatch(ctx context.Context, input string, env *Env) (*Result, error) {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(parts) == 0 {
		return &Result{
			Content: "Empty command. Type /help to see what I can do.",
			Command: "unknown",
		}, nil
	}

	name := strings.ToLower(parts[0])
	cmd, exists := r.commands[name]
	if !exists {
		return &Result{
			Content: fmt.Sprintf("Unknown command: /%s. Type /help for the list of available commands.", name),
			Command: "unknown",
		}, nil
	}

	result, err := cmd.Execute(ctx, parts[1:], env)
	if err != nil {
		return nil, fmt.Errorf("command /%s failed: %w", name, err)
	}
	result.Command = name
	return result, nil
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all commands sorted by name.
func (r *Registry) List() []Command {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Command, 0, len(names))
	for _, name := range names {
		out = append(out, r.commands[name])
	}
	return out
}
