package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the operation deadline. Default: 30 seconds.
	Timeout time.Duration
}

// Timeout bounds an operation's duration. The engine wraps every
// backing-store call in one so the cache never blocks indefinitely on
// the distributed tier.
type Timeout struct {
	cfg TimeoutConfig
}

// NewTimeout creates a timeout wrapper with defaults applied.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{cfg: config}
}

// Execute runs op under the deadline. The operation keeps running in
// its goroutine after a timeout; it is expected to observe ctx and
// unwind promptly.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Config returns the applied configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.cfg
}

// ExecuteWithTimeout runs op with a one-off deadline.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
