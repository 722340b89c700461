// Package resilience provides the circuit breaker and retry helpers used
// by the collaborator clients (breaker and retry) and the LLM client
// (retry only). The DAG executor runs its own per-step retry loop.
package resilience

import (
	"sync"
	"time"
)

// CircuitState is one of closed, open or half-open.
type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the failure threshold and recovery window.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenProbes   int
}

// DefaultCircuitBreakerConfig mirrors the defaults used across the
// collaborator clients: trip after 5 consecutive failures, stay open 30s,
// allow 1 probe in half-open.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenProbes:   1,
	}
}

// CircuitBreaker is a minimal closed/open/half-open breaker guarding one
// outbound collaborator endpoint.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	openedAt    time.Time
	probesSpent int
}

// NewCircuitBreaker constructs a breaker in the closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &CircuitBreaker{cfg: cfg, state: Closed}
}

// Allow reports whether a call may proceed, transitioning open->half-open
// once the timeout has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return true
	case Open:
		if time.Since(cb.openedAt) >= cb.cfg.OpenTimeout {
			cb.state = HalfOpen
			cb.probesSpent = 1
			return true
		}
		return false
	case HalfOpen:
		if cb.probesSpent >= cb.cfg.HalfOpenProbes {
			return false
		}
		cb.probesSpent++
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets its failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = Closed
	cb.failures = 0
}

// RecordFailure increments the failure count and trips the breaker open
// once the threshold is reached (or immediately, if a probe in half-open
// state fails).
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == HalfOpen {
		cb.state = Open
		cb.openedAt = time.Now()
		return
	}

	cb.failures++
	if cb.failures >= cb.cfg.FailureThreshold {
		cb.state = Open
		cb.openedAt = time.Now()
	}
}

// State returns the breaker's current state, for logging/telemetry.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
