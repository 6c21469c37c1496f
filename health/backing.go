package health

import (
	"context"
	"time"
)

// Pinger is anything that can confirm reachability. The redis backing
// store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackingCheckerConfig configures the backing store checker.
type BackingCheckerConfig struct {
	// Timeout bounds the ping. Default: 2 seconds.
	Timeout time.Duration

	// UnhealthyOnFailure reports an unreachable backing tier as
	// unhealthy. Off by default: the engine treats backing failures
	// as misses, so an outage is a performance problem, not an
	// availability one, and reports as degraded.
	UnhealthyOnFailure bool
}

// BackingChecker reports whether the distributed tier is reachable.
type BackingChecker struct {
	config BackingCheckerConfig
	pinger Pinger
}

// NewBackingChecker creates a backing store checker. A nil pinger means
// no backing store is configured and the check always passes.
func NewBackingChecker(config BackingCheckerConfig, pinger Pinger) *BackingChecker {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	return &BackingChecker{config: config, pinger: pinger}
}

// Name returns the name of this checker.
func (c *BackingChecker) Name() string {
	return "backing-store"
}

// Check pings the backing store.
func (c *BackingChecker) Check(ctx context.Context) Result {
	if c.pinger == nil {
		return Healthy("no backing store configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.pinger.Ping(ctx); err != nil {
		if c.config.UnhealthyOnFailure {
			return Unhealthy("backing store unreachable", err)
		}
		return Degraded("backing store unreachable, serving from local tier only")
	}
	return Healthy("backing store reachable")
}
