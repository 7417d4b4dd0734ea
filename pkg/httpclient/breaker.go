package httpclient

import (
	"strings"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker implements the circuit breaker pattern for a single host.
type CircuitBreaker struct {
	threshold   int
	timeout     time.Duration
	halfOpenMax int
	now         func() time.Time

	mu              sync.Mutex
	state           CircuitState
	failures        int
	halfOpenCount   int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given parameters.
func NewCircuitBreaker(threshold int, timeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultCircuitThreshold
	}
	if halfOpenMax <= 0 {
		halfOpenMax = DefaultCircuitHalfOpenMax
	}
	return &CircuitBreaker{
		threshold:   threshold,
		timeout:     timeout,
		halfOpenMax: halfOpenMax,
		now:         time.Now,
		state:       CircuitClosed,
	}
}

// Allow returns true if the request should be allowed to proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.timeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenCount = 1
			return true
		}
		return false
	case CircuitHalfOpen:
		if cb.halfOpenCount < cb.halfOpenMax {
			cb.halfOpenCount++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.halfOpenCount = 0
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.threshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		// Any failure in half-open returns to open.
		cb.state = CircuitOpen
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failures = 0
	cb.halfOpenCount = 0
}

// BreakerSet lazily creates one circuit breaker per host.
type BreakerSet struct {
	threshold   int
	timeout     time.Duration
	halfOpenMax int

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerSet creates an empty set whose breakers share the given parameters.
func NewBreakerSet(threshold int, timeout time.Duration, halfOpenMax int) *BreakerSet {
	return &BreakerSet{
		threshold:   threshold,
		timeout:     timeout,
		halfOpenMax: halfOpenMax,
		breakers:    make(map[string]*CircuitBreaker),
	}
}

// For returns the breaker for host, creating it on first use.
func (s *BreakerSet) For(host string) *CircuitBreaker {
	host = strings.ToLower(host)

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.breakers[host]; ok {
		return b
	}
	b := NewCircuitBreaker(s.threshold, s.timeout, s.halfOpenMax)
	s.breakers[host] = b
	return b
}

// Hosts returns the hosts that currently have a breaker.
func (s *BreakerSet) Hosts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts := make([]string, 0, len(s.breakers))
	for h := range s.breakers {
		hosts = append(hosts, h)
	}
	return hosts
}

// Reset closes every breaker in the set.
func (s *BreakerSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.breakers {
		b.Reset()
	}
}
