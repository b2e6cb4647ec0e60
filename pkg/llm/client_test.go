package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorrell-dev/sidekick/pkg/config"
)

func testConfig(url string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = url
	cfg.TimeoutSeconds = 5
	cfg.MaxRetries = 2
	cfg.Model = config.ModelAuto
	cfg.FallbackChain = []string{"model-a", "model-b", "model-c"}
	return cfg
}

// newTestClient wires a client whose backoff sleeps are recorded, not slept.
func newTestClient(cfg *config.Config) (*Client, *[]time.Duration) {
	c := NewClient(cfg)
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func successBody(model, content string) string {
	return fmt.Sprintf(`{
		"model": %q,
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
	}`, model, content)
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, successBody("model-a", "Here is the answer."))
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "model-a", resp.Model)
	assert.Equal(t, "assistant", resp.Role)
	assert.Equal(t, 150, resp.TotalTokens)
	assert.Greater(t, resp.Confidence, 0.0)
}

func TestCompleteFallbackChain(t *testing.T) {
	var byModel atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		byModel.Add(1)
		if req.Model == "model-c" {
			fmt.Fprint(w, successBody("model-c", "third time lucky"))
			return
		}
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	client, slept := newTestClient(cfg)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "model-c", resp.Model)

	// Models a and b each burned maxRetries retries with doubling delays
	// before the chain moved on.
	require.Len(t, *slept, 2*cfg.MaxRetries)
	assert.Equal(t, time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])

	// 3 attempts per failing model plus 1 success.
	assert.Equal(t, int64(2*(cfg.MaxRetries+1)+1), byModel.Load())
}

func TestCompleteTimeoutSkipsToNextModel(t *testing.T) {
	var slowHits, fastHits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Model == "model-a" {
			slowHits.Add(1)
			// Never answers: the handler returns only once the client gives
			// up and its request context is cancelled.
			<-r.Context().Done()
			return
		}
		fastHits.Add(1)
		fmt.Fprint(w, successBody(req.Model, "quick answer"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.TimeoutSeconds = 1
	client, slept := newTestClient(cfg)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "model-b", resp.Model)
	assert.Equal(t, "quick answer", resp.Content)

	// Deadline expiry ends model-a's attempts after a single request: no
	// same-model retries, no backoff sleeps, straight on to model-b.
	assert.Equal(t, int64(1), slowHits.Load())
	assert.Equal(t, int64(1), fastHits.Load())
	assert.Empty(t, *slept)
	assert.True(t, client.breaker.Available())
}

func TestCompleteRetriesDisabled(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = -1
	client, slept := newTestClient(cfg)

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindExhausted, KindOf(err))

	// One attempt per model in the chain, no backoff.
	assert.Equal(t, int64(len(cfg.Models())), requests.Load())
	assert.Empty(t, *slept)
}

func TestCompleteAllModelsExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindExhausted, KindOf(err))
	assert.Contains(t, err.Error(), "all models failed")
}

func TestCompleteAuthFailureTripsBreaker(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	// Auth failures abort the chain: exactly one network attempt.
	assert.Equal(t, int64(1), requests.Load())

	// Subsequent calls fail fast without network I/O.
	_, err = client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi again"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindCircuitOpen, KindOf(err))
	assert.Equal(t, int64(1), requests.Load())
}

func TestCompleteAfterCooldownRetries(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, successBody("model-a", "recovered"))
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))

	now := time.Now()
	client.breaker.now = func() time.Time { return now }
	client.breaker.Trip()

	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	assert.Equal(t, KindCircuitOpen, KindOf(err))
	assert.Equal(t, int64(0), requests.Load())

	now = now.Add(client.cfg.RetryAfter() + time.Second)
	resp, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int64(1), requests.Load())
}

func TestCompleteRateLimitAbortsChain(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))
	assert.Equal(t, int64(1), requests.Load())
	assert.False(t, client.breaker.Available())
}

func TestCompleteClampsGenerationParams(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, successBody("model-a", "ok"))
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), Request{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 1.5,
		MaxTokens:   100000,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, got.Temperature, 0.8)
	assert.LessOrEqual(t, got.MaxTokens, 4096)
	assert.False(t, got.Stream)
}

func TestCompletePinnedModelSkipsChain(t *testing.T) {
	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		models = append(models, req.Model)
		fmt.Fprint(w, successBody(req.Model, "ok"))
	}))
	defer server.Close()

	client, _ := newTestClient(testConfig(server.URL))
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Model:    "pinned-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "pinned-model", resp.Model)
	assert.Equal(t, []string{"pinned-model"}, models)
}

func TestCompleteBearerAuthHeader(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, successBody("model-a", "ok"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = "sk-test"
	client, _ := newTestClient(cfg)
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", auth)
}

func TestClassifyTransportError(t *testing.T) {
	// The http client surfaces deadline expiry wrapped in a *url.Error; the
	// classifier has to see through the wrapping.
	wrapped := &url.Error{Op: "Post", URL: "http://x/chat/completions", Err: context.DeadlineExceeded}
	assert.Equal(t, KindTimeout, classifyTransportError(wrapped))
	assert.Equal(t, KindTransient, classifyTransportError(fmt.Errorf("connection refused")))
}

func TestAttemptTimeoutExtension(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.TimeoutSeconds = 10
	client, _ := newTestClient(cfg)

	assert.Equal(t, 10*time.Second, client.attemptTimeout(0))
	assert.Equal(t, 15*time.Second, client.attemptTimeout(1))
	// Capped at 3x the configured timeout.
	assert.Equal(t, 30*time.Second, client.attemptTimeout(5))
}
