// Package resilience provides the fault-handling building blocks the
// cache engine composes around loaders and its backing tier: bounded
// retry with exponential backoff, timeouts, a circuit breaker for the
// distributed store, a bulkhead bounding background revalidations, and
// a token-bucket rate limiter.
//
// Each pattern also stands alone, so callers can wrap their own loaders
// with the same policies the engine uses internally.
package resilience
