// Package bridge exposes the session dispatcher over a local HTTP and
// WebSocket endpoint so an editor extension can drive it out-of-process.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jmorrell-dev/sidekick/pkg/session"
	"github.com/jmorrell-dev/sidekick/pkg/types"
	"github.com/jmorrell-dev/sidekick/pkg/utils"
)

// ChatRequest is the inbound payload on /api/chat and the WebSocket.
type ChatRequest struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Context   types.ChatContext `json:"context,omitempty"`
}

// ChatReply wraps the produced message, or an error when the request itself
// was malformed.
type ChatReply struct {
	Message *types.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Server serves the editor bridge. It binds to localhost only.
type Server struct {
	manager *session.Manager
	port    int
	server  *http.Server
	logger  *utils.Logger
}

// NewServer wires a bridge around a session manager.
func NewServer(manager *session.Manager, port int) *Server {
	return &Server{
		manager: manager,
		port:    port,
		logger:  utils.GetLogger(),
	}
}

// routes builds the request mux; split out so tests can serve it directly.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSession)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	mux := s.routes()

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", s.port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Logf("Bridge listening on %s", addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat runs one message through the dispatcher.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatReply{Error: "invalid request body"})
		return
	}
	if req.SessionID == "" || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ChatReply{Error: "session_id and text are required"})
		return
	}

	msg, err := s.manager.ProcessMessage(r.Context(), req.SessionID, req.Text, req.Context)
	if err != nil {
		// Only persistence-class failures reach here.
		s.logger.LogError("bridge chat", err)
		writeJSON(w, http.StatusInternalServerError, ChatReply{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ChatReply{Message: &msg})
}

// handleSessions lists persisted session IDs.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids, err := s.manager.ListSessionIDs()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// handleSession fetches or deletes one session by ID.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/sessions/"):]
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		sess, err := s.manager.GetSession(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if sess == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, sess)
	case http.MethodDelete:
		if err := s.manager.ClearSession(id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
