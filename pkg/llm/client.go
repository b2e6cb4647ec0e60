package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmorrell-dev/sidekick/pkg/config"
	"github.com/jmorrell-dev/sidekick/pkg/utils"
)

const (
	// Upper bounds applied to every request regardless of caller input, to
	// keep cost and latency bounded.
	maxTemperature   = 0.8
	maxTokensCeiling = 4096

	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second

	// Each retry widens the per-attempt timeout to accommodate a recovering
	// endpoint, up to timeoutExtensionCap times the configured timeout.
	timeoutExtensionFactor = 1.5
	timeoutExtensionCap    = 3.0
)

// Client sends chat completions to an OpenAI-compatible endpoint with
// timeout, per-model retry, a circuit breaker, and a model fallback chain.
// Retry policy stays inside the client; callers only see the final result.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	breaker    *CircuitBreaker
	logger     *utils.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewClient creates a client with its own circuit breaker. Breakers are
// per-client so two clients pointed at different endpoints do not share
// failure state.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		breaker:    NewCircuitBreaker(cfg.RetryAfter()),
		logger:     utils.GetLogger(),
		sleep:      time.Sleep,
	}
}

// Breaker exposes the circuit breaker, mainly for status reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Complete resolves the fallback chain and returns the first successful
// response. See the package error kinds for the failure contract: timeouts
// skip to the next model, transient errors retry the same model, auth and
// rate-limit failures abort the whole chain and trip the breaker.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	temperature := clampTemperature(req.Temperature)
	maxTokens := clampMaxTokens(req.MaxTokens)

	models := c.resolveModels(req.Model)
	if len(models) == 0 {
		return nil, fmt.Errorf("no models configured")
	}

	var lastErr error
	for _, model := range models {
		wire, err := c.attemptModel(ctx, model, req.Messages, temperature, maxTokens)
		if err == nil {
			c.breaker.RecordSuccess()
			return c.normalize(model, req.Messages, wire), nil
		}

		switch KindOf(err) {
		case KindAuth, KindRateLimit:
			// Not model-specific: no point trying the rest of the chain.
			c.breaker.Trip()
			c.logger.Logf("Circuit breaker tripped: %v", err)
			return nil, err
		}
		c.logger.Logf("Model %s failed, trying next in chain: %v", model, err)
		lastErr = err
	}

	return nil, &APIError{Kind: KindExhausted, Err: lastErr}
}

// attemptModel runs the retry loop for a single model. Transient errors are
// retried with exponential backoff; a timeout ends the attempts for this
// model immediately since timeouts indicate overload rather than transience.
func (c *Client) attemptModel(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (*chatResponse, error) {
	retryDelay := baseRetryDelay
	maxRetries := c.cfg.Retries()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		wire, err := c.doRequest(ctx, model, messages, temperature, maxTokens, c.attemptTimeout(attempt))
		if err == nil {
			return wire, nil
		}
		lastErr = err

		switch KindOf(err) {
		case KindTransient:
			if attempt == maxRetries {
				return nil, lastErr
			}
			c.sleep(retryDelay)
			retryDelay *= 2
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
		default:
			// Timeout, auth, rate limit: no further attempts on this model.
			return nil, err
		}
	}
	return nil, lastErr
}

// attemptTimeout widens the base timeout on each retry, capped.
func (c *Client) attemptTimeout(attempt int) time.Duration {
	base := c.cfg.Timeout()
	factor := 1.0
	for i := 0; i < attempt; i++ {
		factor *= timeoutExtensionFactor
	}
	if factor > timeoutExtensionCap {
		factor = timeoutExtensionCap
	}
	return time.Duration(float64(base) * factor)
}

// doRequest performs one HTTP call under its own deadline.
func (c *Client) doRequest(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int, timeout time.Duration) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuth(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Kind: classifyTransportError(err), Model: model, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: classifyTransportError(err), Model: model, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		kind := classifyHTTPStatus(resp.StatusCode, string(respBody))
		return nil, &APIError{
			Kind:       kind,
			Model:      model,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var wire chatResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, &APIError{Kind: KindTransient, Model: model, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(wire.Choices) == 0 {
		return nil, &APIError{Kind: KindTransient, Model: model, Err: fmt.Errorf("response contained no choices")}
	}
	return &wire, nil
}

// setAuth applies bearer-token or HTTP Basic credentials as configured.
func (c *Client) setAuth(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		return
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

// resolveModels picks the attempt sequence: a pinned request model wins,
// otherwise the config decides (pinned config model or fallback chain).
func (c *Client) resolveModels(requested string) []string {
	if requested != "" && requested != config.ModelAuto {
		return []string{requested}
	}
	return c.cfg.Models()
}

// normalize converts a wire response into the dispatcher-facing form with
// usage counts, confidence, and extracted suggestions.
func (c *Client) normalize(model string, prompt []Message, wire *chatResponse) *Response {
	choice := wire.Choices[0]
	resp := &Response{
		Role:             choice.Message.Role,
		Content:          choice.Message.Content,
		Model:            model,
		PromptTokens:     wire.Usage.PromptTokens,
		CompletionTokens: wire.Usage.CompletionTokens,
		TotalTokens:      wire.Usage.TotalTokens,
	}
	if resp.Role == "" {
		resp.Role = "assistant"
	}
	resp.Confidence = scoreConfidence(resp.Content, resp.PromptTokens, resp.CompletionTokens)
	resp.Suggestions = ExtractSuggestions(resp.Content)
	return resp
}

func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > maxTemperature {
		return maxTemperature
	}
	return t
}

func clampMaxTokens(n int) int {
	if n <= 0 || n > maxTokensCeiling {
		return maxTokensCeiling
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
