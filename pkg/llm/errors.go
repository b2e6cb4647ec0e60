package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies an API failure so callers can react without matching
// on error strings.
type ErrorKind string

const (
	// KindTimeout: a single attempt ran past its deadline. Not retried on the
	// same model; the fallback chain moves on.
	KindTimeout ErrorKind = "timeout"
	// KindTransient: connection failures, 5xx gateway errors, overload
	// signals. Retried on the same model with backoff.
	KindTransient ErrorKind = "transient"
	// KindAuth: credential rejection. Fatal for the whole call.
	KindAuth ErrorKind = "auth"
	// KindRateLimit: the endpoint is throttling us. Fatal for the whole call.
	KindRateLimit ErrorKind = "rate_limit"
	// KindCircuitOpen: the breaker refused the call before any network I/O.
	KindCircuitOpen ErrorKind = "circuit_open"
	// KindExhausted: every model in the fallback chain failed.
	KindExhausted ErrorKind = "exhausted"
)

// APIError is the typed error surface of the client.
type APIError struct {
	Kind       ErrorKind
	Model      string
	StatusCode int
	RetryAt    time.Time
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindCircuitOpen:
		return fmt.Sprintf("endpoint unavailable, next retry at %s", e.RetryAt.Format(time.RFC3339))
	case KindExhausted:
		return fmt.Sprintf("all models failed, last error: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("model %s timed out: %v", e.Model, e.Err)
	default:
		if e.Model != "" {
			return fmt.Sprintf("model %s: %s error: %v", e.Model, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf extracts the error kind, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// classifyHTTPStatus maps an HTTP failure status plus response body to an
// error kind. The body matters because some providers return auth and
// overload details under generic statuses.
func classifyHTTPStatus(status int, body string) ErrorKind {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid_api_key"):
		return KindAuth
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests"):
		return KindRateLimit
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return KindTransient
	case strings.Contains(lower, "overloaded"):
		return KindTransient
	default:
		return KindTransient
	}
}

// classifyTransportError distinguishes deadline expiry from connection-class
// failures.
func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransient
}
