package cache

import (
	"context"
	"regexp"
	"time"

	"github.com/jonwraymond/requestcache/observe"
	"github.com/jonwraymond/requestcache/resilience"
)

// Engine is the public-facing orchestrator composing the local store,
// the optional backing tier, the staleness policy, and the in-flight
// tracker. Construct one per cache at the composition root and share it
// by reference; there is no ambient global instance.
type Engine struct {
	cfg     Config
	store   *Store
	flights *flightGroup
	backing *backingTier
	refresh *resilience.Bulkhead
	limiter *resilience.RateLimiter

	metrics counters
}

// New creates an Engine. Configuration errors are the only failures
// that prevent startup; after construction every internal fault
// degrades to a cache miss.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:     cfg,
		store:   NewStore(cfg.LocalCapacityBytes, cfg.Eviction),
		flights: newFlightGroup(),
		refresh: resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrentRefreshes,
		}),
	}
	if cfg.BackingStore != nil {
		e.backing = newBackingTier(cfg.BackingStore, cfg.BackingTimeout, cfg.Logger)
	}
	if cfg.RefreshRatePerSec > 0 {
		e.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate: cfg.RefreshRatePerSec,
		})
	}
	return e, nil
}

// KeyFor derives a cache key from a request descriptor using the
// configured keyer.
func (e *Engine) KeyFor(d Descriptor) (string, error) {
	return e.cfg.Keyer.Key(d)
}

// GetBytes returns the value for key, loading it through loader on a
// miss. Fresh local entries are returned directly; otherwise the
// backing tier is consulted read-through, and finally the loader runs
// deduplicated so concurrent callers for the same key share one
// execution. Only the loader's own error is ever surfaced.
func (e *Engine) GetBytes(ctx context.Context, key string, loader Loader, opts Options) ([]byte, error) {
	if e == nil {
		return nil, ErrNilEngine
	}
	if loader == nil {
		return nil, ErrNilLoader
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	now := e.cfg.now()
	entry, found := e.store.Get(key, now)
	if found {
		switch e.cfg.Policy.Freshness(&entry, now) {
		case Fresh:
			e.hit(ctx, "local")
			e.adaptTTL(key, now)
			return entry.Value, nil
		case Stale:
			if opts.StaleWhileRevalidate {
				e.hit(ctx, "local")
				e.metrics.staleServe()
				e.logDebug(ctx, "serving stale value, revalidating",
					observe.Field{Key: "key", Value: key})
				e.revalidate(key, loader, opts)
				return entry.Value, nil
			}
		}
		// Expired, or stale without revalidation: reload, keeping the
		// old entry around as a fallback.
	}

	if e.backing != nil {
		if value, ok := e.backing.get(ctx, key); ok {
			e.hit(ctx, "backing")
			e.metrics.backingHit()
			e.populateLocal(ctx, key, value, opts, now)
			return value, nil
		}
	}

	e.missed(ctx)
	res := e.flights.Do(ctx, key, e.cfg.LoadTimeout, e.writeThroughLoader(key, loader, opts))
	if res.shared {
		e.metrics.dedup()
		e.instrument(func(i *observe.CacheInstruments) { i.RecordDedup(ctx, e.cfg.Name) })
	}
	if res.err != nil {
		// A failed load must not poison either tier, but an entry in
		// its grace window may still answer.
		if found && e.cfg.Policy.Freshness(&entry, now) == Stale {
			e.metrics.staleServe()
			e.logWarn(ctx, "serving stale value after load failure",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: res.err.Error()},
			)
			return entry.Value, nil
		}
		return nil, res.err
	}
	return res.value, nil
}

// SetBytes writes a value directly, bypassing loaders. Used when the
// caller already holds fresh data, e.g. from a mutation response.
func (e *Engine) SetBytes(ctx context.Context, key string, value []byte, opts Options) error {
	if e == nil {
		return ErrNilEngine
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	e.write(ctx, key, value, opts)
	return nil
}

// Invalidate removes key from both tiers. Reports whether any tier
// held it.
func (e *Engine) Invalidate(ctx context.Context, key string) bool {
	if e == nil {
		return false
	}
	removed := e.store.Remove(key)
	if e.backing != nil {
		if e.backing.delete(ctx, key) {
			removed = true
		}
	}
	return removed
}

// InvalidateByTag removes every entry carrying tag from both tiers and
// returns the per-tier removals summed: a write-through entry resident
// in both tiers counts once per tier. The backing store reports only
// how many keys it deleted, so the tiers cannot be deduplicated into a
// logical-entry count without a second round trip.
func (e *Engine) InvalidateByTag(ctx context.Context, tag string) int {
	if e == nil {
		return 0
	}
	n := e.store.RemoveWhere(func(en *Entry) bool { return en.HasTag(tag) })
	if e.backing != nil {
		n += e.backing.deleteByTag(ctx, tag)
	}
	return n
}

// InvalidateByPattern removes every entry whose key matches the pattern
// from both tiers and returns the per-tier removals summed, with the
// same double-resident counting as InvalidateByTag.
func (e *Engine) InvalidateByPattern(ctx context.Context, pattern *regexp.Regexp) int {
	if e == nil || pattern == nil {
		return 0
	}
	n := e.store.RemoveWhere(func(en *Entry) bool { return pattern.MatchString(en.Key) })
	if e.backing != nil {
		n += e.backing.deleteByPattern(ctx, pattern)
	}
	return n
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() Metrics {
	return e.metrics.snapshot(e.store.Evictions())
}

// InFlight returns the number of callers currently waiting on key.
// Intended for tests and health reporting.
func (e *Engine) InFlight(key string) int {
	return e.flights.Waiters(key)
}

// writeThroughLoader wraps the caller's loader with load timing and a
// write-through of the result to both tiers. It runs inside the flight,
// so the write happens exactly once per collapsed load.
func (e *Engine) writeThroughLoader(key string, loader Loader, opts Options) Loader {
	return func(ctx context.Context) ([]byte, error) {
		start := time.Now()
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		d := time.Since(start)
		e.metrics.load(d)
		e.instrument(func(i *observe.CacheInstruments) { i.RecordLoad(ctx, e.cfg.Name, d, nil) })
		e.write(ctx, key, value, opts)
		return value, nil
	}
}

// write stores a value in the local tier and, write-through, in the
// backing tier.
func (e *Engine) write(ctx context.Context, key string, value []byte, opts Options) {
	now := e.cfg.now()
	ttl := e.cfg.Policy.EffectiveTTL(opts.TTL)
	e.recordEvictions(ctx, e.store.Put(newEntry(key, value, ttl, opts.Tags, now)))
	if e.backing != nil {
		e.backing.set(ctx, key, value, ttl, opts.Tags)
	}
}

// populateLocal fills the local tier from a backing hit (read-through).
func (e *Engine) populateLocal(ctx context.Context, key string, value []byte, opts Options, now time.Time) {
	ttl := e.cfg.Policy.EffectiveTTL(opts.TTL)
	e.recordEvictions(ctx, e.store.Put(newEntry(key, value, ttl, opts.Tags, now)))
}

func (e *Engine) recordEvictions(ctx context.Context, n int) {
	if n > 0 {
		e.instrument(func(i *observe.CacheInstruments) { i.RecordEvictions(ctx, e.cfg.Name, int64(n)) })
	}
}

// revalidate kicks off a fire-and-forget refresh for a stale entry.
// The refresh shares the in-flight tracker with foreground loads, so a
// stuck refresh is superseded once its load timeout elapses, and at
// most one refresh runs per key. The bulkhead and optional rate limiter
// bound refresh pressure; when either rejects, the stale value simply
// keeps serving until the next opportunity.
func (e *Engine) revalidate(key string, loader Loader, opts Options) {
	if e.limiter != nil && !e.limiter.Allow() {
		return
	}
	if err := e.refresh.Acquire(context.Background()); err != nil {
		return
	}
	go func() {
		defer e.refresh.Release()
		ctx := context.Background()
		res := e.flights.Do(ctx, key, e.cfg.LoadTimeout, e.writeThroughLoader(key, loader, opts))
		e.instrument(func(i *observe.CacheInstruments) { i.RecordRefresh(ctx, e.cfg.Name, res.err) })
		if res.err != nil {
			e.metrics.refreshFails.Add(1)
			e.logWarn(ctx, "background revalidation failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: res.err.Error()},
			)
		}
	}()
}

// adaptTTL applies the adaptive TTL policy to a live entry.
func (e *Engine) adaptTTL(key string, now time.Time) {
	if !e.cfg.Policy.AdaptiveTTL {
		return
	}
	e.store.Update(key, func(en *Entry) {
		en.TTL = e.cfg.Policy.NextTTL(en, now)
	})
}

func (e *Engine) hit(ctx context.Context, tier string) {
	e.metrics.hit()
	e.instrument(func(i *observe.CacheInstruments) { i.RecordLookup(ctx, e.cfg.Name, tier, true) })
}

func (e *Engine) missed(ctx context.Context) {
	e.metrics.miss()
	e.instrument(func(i *observe.CacheInstruments) { i.RecordLookup(ctx, e.cfg.Name, "loader", false) })
}

func (e *Engine) instrument(fn func(*observe.CacheInstruments)) {
	if e.cfg.Instruments != nil {
		fn(e.cfg.Instruments)
	}
}

func (e *Engine) logWarn(ctx context.Context, msg string, fields ...observe.Field) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Warn(ctx, msg, fields...)
	}
}

func (e *Engine) logDebug(ctx context.Context, msg string, fields ...observe.Field) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug(ctx, msg, fields...)
	}
}
