package resilience

import "errors"

var (
	// ErrCircuitOpen means the breaker is rejecting requests.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded means no token was available.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull means every concurrency slot is in use.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout means the operation exceeded its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
