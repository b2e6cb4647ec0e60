package types

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the three recognized roles.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// FileRef points at a file the user is working with. Path is the absolute or
// workspace-relative path as reported by the editor.
type FileRef struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
}

// ChatContext is a snapshot of what the user is currently looking at in the
// editor. It is recomputed on demand and only persisted as part of a Session.
type ChatContext struct {
	ActiveFile     *FileRef  `json:"active_file,omitempty"`
	Selection      string    `json:"selection,omitempty"`
	WorkspaceFiles []FileRef `json:"workspace_files,omitempty"`
	AnalysisNotes  []string  `json:"analysis_notes,omitempty"`
}

// Merge returns a copy of c with the non-empty fields of other overlaid on
// top. Fields present in other win; fields absent in other are kept from c.
func (c ChatContext) Merge(other ChatContext) ChatContext {
	merged := c
	if other.ActiveFile != nil {
		merged.ActiveFile = other.ActiveFile
	}
	if other.Selection != "" {
		merged.Selection = other.Selection
	}
	if len(other.WorkspaceFiles) > 0 {
		merged.WorkspaceFiles = other.WorkspaceFiles
	}
	if len(other.AnalysisNotes) > 0 {
		merged.AnalysisNotes = other.AnalysisNotes
	}
	return merged
}

// Suggestion is an actionable item extracted from a model response, either a
// fenced code block or a bullet-style recommendation.
type Suggestion struct {
	Kind     string `json:"kind"` // "code" or "note"
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

// MessageMetadata carries optional bookkeeping attached to a message.
type MessageMetadata struct {
	PromptTokens     int          `json:"prompt_tokens,omitempty"`
	CompletionTokens int          `json:"completion_tokens,omitempty"`
	TotalTokens      int          `json:"total_tokens,omitempty"`
	Model            string       `json:"model,omitempty"`
	Confidence       float64      `json:"confidence,omitempty"`
	Error            string       `json:"error,omitempty"`
	Command          string       `json:"command,omitempty"`
	Suggestions      []Suggestion `json:"suggestions,omitempty"`
}

// Message is a single entry in a conversation. Messages are immutable once
// created and owned exclusively by their Session.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Context   *ChatContext     `json:"context,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// NewMessage builds a message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Session is a persisted conversation thread. The message slice is
// append-only except for trimming, which always preserves the first message.
type Session struct {
	ID        string      `json:"id"`
	Title     string      `json:"title,omitempty"`
	Messages  []Message   `json:"messages"`
	Context   ChatContext `json:"context"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewSession creates an empty session with the given ID and context snapshot.
func NewSession(id string, ctx ChatContext) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Messages:  []Message{},
		Context:   ctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the end of the conversation and bumps UpdatedAt.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// Trim shrinks the history to at most max messages. The first message is kept
// as anchor context and the remainder is filled from the most recent end.
// Trimming with max < 2 is a no-op to avoid dropping the anchor.
func (s *Session) Trim(max int) {
	if max < 2 || len(s.Messages) <= max {
		return
	}
	trimmed := make([]Message, 0, max)
	trimmed = append(trimmed, s.Messages[0])
	trimmed = append(trimmed, s.Messages[len(s.Messages)-(max-1):]...)
	s.Messages = trimmed
}

// FirstUserText returns the content of the earliest user message, or "".
func (s *Session) FirstUserText() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}
