package llm

import (
	"sync"
	"time"
)

// CircuitBreaker gates outbound calls after a fatal failure class (auth or
// rate limit) is observed. It holds a single availability flag plus the last
// failure time; the pair is always updated together under the mutex.
//
// The breaker re-closes lazily: availability is re-evaluated on the next
// Allow call once the cooldown has elapsed, there is no background timer.
type CircuitBreaker struct {
	mu          sync.Mutex
	available   bool
	lastFailure time.Time
	retryAfter  time.Duration
	now         func() time.Time
}

// NewCircuitBreaker creates an available breaker with the given cooldown.
func NewCircuitBreaker(retryAfter time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		available:  true,
		retryAfter: retryAfter,
		now:        time.Now,
	}
}

// Allow reports whether a call may proceed. When the breaker is open it
// returns an APIError naming the next retry time; no network I/O should
// happen after a non-nil return.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.available {
		return nil
	}
	if b.now().Sub(b.lastFailure) > b.retryAfter {
		// Cooldown elapsed: let one real attempt through.
		b.available = true
		b.lastFailure = time.Time{}
		return nil
	}
	return &APIError{
		Kind:    KindCircuitOpen,
		RetryAt: b.lastFailure.Add(b.retryAfter),
	}
}

// Trip marks the endpoint unavailable and records the failure time.
func (b *CircuitBreaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available = false
	b.lastFailure = b.now()
}

// RecordSuccess resets the breaker after any successful call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available = true
	b.lastFailure = time.Time{}
}

// Available reports the current flag without the lazy cooldown check.
func (b *CircuitBreaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}
