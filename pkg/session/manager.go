package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmorrell-dev/sidekick/pkg/commands"
	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/types"
	"github.com/jmorrell-dev/sidekick/pkg/utils"
	"github.com/jmorrell-dev/sidekick/pkg/workspace"
)

const maxTitleLength = 50

// Manager owns conversation state and routes each inbound message to a slash
// command handler or the conversational path. Exactly one response Message is
// produced per inbound message; downstream failures become assistant messages
// rather than errors.
type Manager struct {
	cfg        *config.Config
	store      Store
	client     commands.Completer
	registry   *commands.Registry
	editor     workspace.Editor
	aggregator *workspace.Aggregator
	logger     *utils.Logger

	// Per-session locks keep ProcessMessage calls for the same session from
	// interleaving their history appends. Cross-session calls run freely.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager wires the dispatcher. editor may be nil when no editor host is
// attached (e.g. plain CLI chat).
func NewManager(cfg *config.Config, store Store, client commands.Completer, editor workspace.Editor) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      store,
		client:     client,
		registry:   commands.NewRegistry(),
		editor:     editor,
		aggregator: workspace.NewAggregator(editor),
		logger:     utils.GetLogger(),
		locks:      make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing one session's processing.
func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

// ProcessMessage appends the user's text to the session, produces exactly one
// assistant response, persists the session, and returns the response.
//
// Downstream failures (model unreachable, command handler errors) are
// converted to assistant messages and never propagate. Persistence failures
// do propagate: a session is not considered created or updated until the
// store has at least attempted its write.
func (m *Manager) ProcessMessage(ctx context.Context, sessionID, text string, chatCtx types.ChatContext) (types.Message, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.loadOrCreate(sessionID, chatCtx)
	if err != nil {
		return types.Message{}, err
	}
	// Editor state refreshes from the aggregator first; whatever the caller
	// sent with this message wins over the snapshot.
	sess.Context = sess.Context.Merge(m.aggregator.CurrentContext()).Merge(chatCtx)

	// The user message lands in history before any processing so the
	// transcript reflects what was asked even when everything below fails.
	userMsg := types.NewMessage(types.RoleUser, text)
	snapshot := chatCtx
	userMsg.Context = &snapshot
	sess.Append(userMsg)

	if sess.Title == "" {
		sess.Title = deriveTitle(text)
	}

	response := m.respond(ctx, sess, text)
	sess.Append(response)
	sess.Trim(m.cfg.MaxHistoryLength)

	if err := m.store.Save(sess); err != nil {
		return types.Message{}, fmt.Errorf("failed to persist session %s: %w", sessionID, err)
	}
	return response, nil
}

// respond picks the command or conversational path and converts any failure
// into an assistant message.
func (m *Manager) respond(ctx context.Context, sess *types.Session, text string) types.Message {
	env := &commands.Env{
		Session:    sess,
		Client:     m.client,
		Editor:     m.editor,
		Aggregator: m.aggregator,
		Config:     m.cfg,
	}

	var (
		result *commands.Result
		err    error
	)
	if commands.IsSlashCommand(text) {
		result, err = m.registry.Dispatch(ctx, text, env)
	} else {
		result, err = m.converse(ctx, sess)
	}
	if err != nil {
		m.logger.LogError("message processing", err)
		return errorMessage(err)
	}

	msg := types.NewMessage(types.RoleAssistant, result.Content)
	meta := &types.MessageMetadata{Command: result.Command}
	if resp := result.Response; resp != nil {
		meta.PromptTokens = resp.PromptTokens
		meta.CompletionTokens = resp.CompletionTokens
		meta.TotalTokens = resp.TotalTokens
		meta.Model = resp.Model
		meta.Confidence = resp.Confidence
		meta.Suggestions = resp.Suggestions
	}
	msg.Metadata = meta
	return msg
}

// converse sends the bounded conversational window to the model under a
// system prompt built from the session's current context.
func (m *Manager) converse(ctx context.Context, sess *types.Session) (*commands.Result, error) {
	window := sess.Messages
	if n := m.cfg.ContextWindow(); n > 0 && len(window) > n {
		window = window[len(window)-n:]
	}

	msgs := make([]llm.Message, 0, len(window)+1)
	msgs = append(msgs, llm.Message{
		Role:    string(types.RoleSystem),
		Content: commands.ChatSystemPrompt(sess.Context),
	})
	for _, msg := range window {
		msgs = append(msgs, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}

	params := m.cfg.ParamsFor("chat")
	resp, err := m.client.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &commands.Result{Content: resp.Content, Response: resp}, nil
}

// loadOrCreate fetches the session from the store or creates and persists a
// fresh one.
func (m *Manager) loadOrCreate(sessionID string, chatCtx types.ChatContext) (*types.Session, error) {
	sess, err := m.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	sess = types.NewSession(sessionID, chatCtx)
	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	return sess, nil
}

// GetSession loads a session snapshot, or (nil, nil) when it doesn't exist.
func (m *Manager) GetSession(sessionID string) (*types.Session, error) {
	return m.store.Load(sessionID)
}

// ListSessionIDs lists persisted sessions.
func (m *Manager) ListSessionIDs() ([]string, error) {
	return m.store.ListSessionIDs()
}

// ClearSession deletes a session from the store.
func (m *Manager) ClearSession(sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Delete(sessionID)
}

// errorMessage wraps a downstream failure in a user-facing assistant message
// with the raw error preserved in metadata.
func errorMessage(err error) types.Message {
	var content string
	switch llm.KindOf(err) {
	case llm.KindCircuitOpen:
		content = fmt.Sprintf("The model endpoint is cooling down after repeated failures. %v", err)
	case llm.KindTimeout:
		content = "The model took too long to respond. Try again, or try a smaller piece of code."
	case llm.KindAuth:
		content = "The endpoint rejected our credentials. Check the api_key (or username/password) in your sidekick config."
	case llm.KindRateLimit:
		content = "The endpoint is rate limiting us. Give it a moment before retrying."
	case llm.KindExhausted:
		content = fmt.Sprintf("None of the configured models could answer. Last error: %v", err)
	default:
		content = fmt.Sprintf("Something went wrong while processing your message: %v", err)
	}

	msg := types.NewMessage(types.RoleAssistant, content)
	msg.Metadata = &types.MessageMetadata{Error: err.Error()}
	return msg
}

// deriveTitle builds a session title from the first user message.
func deriveTitle(text string) string {
	title := strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength] + "..."
	}
	return title
}
