package bridge

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// SafeConn wraps a WebSocket connection with a write mutex so replies from
// concurrent chat calls never interleave on the wire.
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// NewSafeConn creates a new safe connection wrapper.
func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteJSON safely writes JSON to the connection. Writes after Close are
// silently dropped.
func (sc *SafeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if sc.closed {
		return nil
	}
	return sc.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The bridge binds to localhost; the editor extension connects without a
	// browser origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket runs a chat loop over one WebSocket connection: each
// inbound ChatRequest produces exactly one ChatReply.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.LogError("websocket upgrade", err)
		return
	}
	safe := NewSafeConn(conn)
	defer safe.Close()

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.LogError("websocket read", err)
			}
			return
		}
		if req.SessionID == "" || req.Text == "" {
			_ = safe.WriteJSON(ChatReply{Error: "session_id and text are required"})
			continue
		}

		msg, err := s.manager.ProcessMessage(r.Context(), req.SessionID, req.Text, req.Context)
		if err != nil {
			_ = safe.WriteJSON(ChatReply{Error: err.Error()})
			continue
		}
		_ = safe.WriteJSON(ChatReply{Message: &msg})
	}
}
