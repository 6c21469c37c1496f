package cache

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jonwraymond/requestcache/observe"
	"github.com/jonwraymond/requestcache/resilience"
)

// ErrBackingStore classifies second-tier failures. It never reaches
// callers: the engine absorbs it, logs it, and proceeds as on a miss.
var ErrBackingStore = errors.New("cache: backing store failure")

// BackingStore is the optional distributed second tier.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: any error is treated by the engine as a miss, never as fatal.
// - Ownership: the store is shared by reference; the engine never closes it.
type BackingStore interface {
	// Get retrieves stored bytes. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores bytes with the given TTL and tags. TTL=0 entries are
	// still written so they can serve as stale fallbacks.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error

	// Delete removes a key. Reports whether it was present.
	Delete(ctx context.Context, key string) (bool, error)

	// DeleteByTag removes every key carrying the tag and returns the count.
	DeleteByTag(ctx context.Context, tag string) (int, error)

	// DeleteByPattern removes every key matching the pattern and returns the count.
	DeleteByPattern(ctx context.Context, pattern *regexp.Regexp) (int, error)
}

// backingTier wraps a BackingStore with a call timeout, a circuit
// breaker, and error absorption. Every method degrades to miss/no-op on
// failure so the cache stays a pure performance optimization.
type backingTier struct {
	store  BackingStore
	exec   *resilience.Executor
	logger observe.Logger
}

func newBackingTier(store BackingStore, timeout time.Duration, logger observe.Logger) *backingTier {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  5,
		ResetTimeout: 15 * time.Second,
	})
	return &backingTier{
		store: store,
		exec: resilience.NewExecutor(
			resilience.WithCircuitBreaker(breaker),
			resilience.WithTimeout(timeout),
		),
		logger: logger,
	}
}

func (b *backingTier) get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var found bool
	err := b.exec.Execute(ctx, func(ctx context.Context) error {
		var err error
		value, found, err = b.store.Get(ctx, key)
		return err
	})
	if err != nil {
		b.absorb(ctx, "get", key, err)
		return nil, false
	}
	return value, found
}

func (b *backingTier) set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) {
	err := b.exec.Execute(ctx, func(ctx context.Context) error {
		return b.store.Set(ctx, key, value, ttl, tags)
	})
	if err != nil {
		b.absorb(ctx, "set", key, err)
	}
}

func (b *backingTier) delete(ctx context.Context, key string) bool {
	var removed bool
	err := b.exec.Execute(ctx, func(ctx context.Context) error {
		var err error
		removed, err = b.store.Delete(ctx, key)
		return err
	})
	if err != nil {
		b.absorb(ctx, "delete", key, err)
		return false
	}
	return removed
}

func (b *backingTier) deleteByTag(ctx context.Context, tag string) int {
	var removed int
	err := b.exec.Execute(ctx, func(ctx context.Context) error {
		var err error
		removed, err = b.store.DeleteByTag(ctx, tag)
		return err
	})
	if err != nil {
		b.absorb(ctx, "delete-by-tag", tag, err)
		return 0
	}
	return removed
}

func (b *backingTier) deleteByPattern(ctx context.Context, pattern *regexp.Regexp) int {
	var removed int
	err := b.exec.Execute(ctx, func(ctx context.Context) error {
		var err error
		removed, err = b.store.DeleteByPattern(ctx, pattern)
		return err
	})
	if err != nil {
		b.absorb(ctx, "delete-by-pattern", pattern.String(), err)
		return 0
	}
	return removed
}

// absorb logs a backing tier failure at Warn and moves on.
func (b *backingTier) absorb(ctx context.Context, op, key string, err error) {
	if b.logger == nil {
		return
	}
	b.logger.Warn(ctx, "backing store degraded to miss",
		observe.Field{Key: "op", Value: op},
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "error", Value: err.Error()},
	)
}
