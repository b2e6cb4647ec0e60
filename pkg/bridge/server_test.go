package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/llm"
	"github.com/jmorrell-dev/sidekick/pkg/session"
	"github.com/jmorrell-dev/sidekick/pkg/types"
)

type fakeCompleter struct{}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Role: "assistant", Content: "bridge reply", Model: "fake"}, nil
}

func newTestBridge(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	mgr := session.NewManager(config.DefaultConfig(), store, &fakeCompleter{}, nil)
	srv := NewServer(mgr, 0)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestBridge(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestBridge(t)

	body, _ := json.Marshal(ChatRequest{SessionID: "b1", Text: "hello"})
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply ChatReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	require.NotNil(t, reply.Message)
	assert.Equal(t, types.RoleAssistant, reply.Message.Role)
	assert.Equal(t, "bridge reply", reply.Message.Content)
}

func TestChatEndpointRejectsMissingFields(t *testing.T) {
	ts := newTestBridge(t)

	body, _ := json.Marshal(ChatRequest{Text: "no session"})
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	ts := newTestBridge(t)

	body, _ := json.Marshal(ChatRequest{SessionID: "lifecycle", Text: "hello"})
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	var listing map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	assert.Contains(t, listing["sessions"], "lifecycle")

	resp, err = http.Get(ts.URL + "/api/sessions/lifecycle")
	require.NoError(t, err)
	var sess types.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	resp.Body.Close()
	assert.Len(t, sess.Messages, 2)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/lifecycle", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/sessions/lifecycle")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketChatLoop(t *testing.T) {
	ts := newTestBridge(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ChatRequest{SessionID: "ws1", Text: "hi"}))
	var reply ChatReply
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Message)
	assert.Equal(t, "bridge reply", reply.Message.Content)

	// Malformed requests get an error reply, and the loop keeps going.
	require.NoError(t, conn.WriteJSON(ChatRequest{Text: "no session"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.NotEmpty(t, reply.Error)

	require.NoError(t, conn.WriteJSON(ChatRequest{SessionID: "ws1", Text: "again"}))
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Message)
}
