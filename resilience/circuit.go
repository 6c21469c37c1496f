package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed passes requests through normally.
	StateClosed State = iota
	// StateOpen rejects every request.
	StateOpen
	// StateHalfOpen lets a limited number of probes through to test
	// whether the dependency recovered.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the
	// circuit. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests caps concurrent probes while half-open.
	// Default: 1.
	HalfOpenMaxRequests int

	// OnStateChange is invoked on every transition.
	OnStateChange func(from, to State)

	// IsFailure classifies errors. Default: every non-nil error counts.
	IsFailure func(err error) bool
}

// CircuitBreaker guards a fallible dependency. The engine puts one in
// front of the backing store: once the distributed tier fails
// repeatedly, lookups short-circuit to miss without waiting out the
// timeout on every call.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probes      int // requests admitted while half-open
}

// NewCircuitBreaker creates a circuit breaker with defaults applied.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{cfg: config, state: StateClosed}
}

// Execute runs op through the breaker. Returns ErrCircuitOpen without
// calling op when the circuit is rejecting requests.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current state, accounting for reset-timeout expiry.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset forces the circuit closed and clears failure history.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	prev := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0

	if prev != StateClosed && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(prev, StateClosed)
	}
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.cfg.IsFailure(err)
	prev := cb.state

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			break
		}
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.cfg.MaxFailures {
			cb.state = StateOpen
		}

	case StateHalfOpen:
		if failed {
			// Probe failed; restart the open interval.
			cb.lastFailure = time.Now()
			cb.state = StateOpen
		} else {
			cb.state = StateClosed
			cb.failures = 0
		}
	}

	if prev != cb.state && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(prev, cb.state)
	}
}

// stateLocked transitions open to half-open once the reset timeout has
// elapsed. Callers must hold cb.mu.
func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.cfg.ResetTimeout {
		cb.state = StateHalfOpen
		cb.probes = 0
		if cb.cfg.OnStateChange != nil {
			cb.cfg.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

// CircuitBreakerMetrics is a snapshot of breaker state.
type CircuitBreakerMetrics struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// Metrics returns a snapshot of the breaker.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:       cb.stateLocked(),
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
	}
}
