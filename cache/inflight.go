package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// flightGroup deduplicates concurrent loads per key so only one
// underlying operation executes. Waiters that join before settlement
// all receive the same outcome; joiners after settlement start a new
// load. Failures are never cached.
//
// The loader runs detached from any single caller's context: a waiter
// canceling stops only its own wait, not the load. The engine bounds
// the load itself with its own timeout.
type flightGroup struct {
	sf singleflight.Group

	mu      sync.Mutex
	waiters map[string]int
	started map[string]time.Time
}

func newFlightGroup() *flightGroup {
	return &flightGroup{
		waiters: make(map[string]int),
		started: make(map[string]time.Time),
	}
}

// flightResult is the settled outcome handed to every waiter.
type flightResult struct {
	value  []byte
	err    error
	shared bool // true when this caller joined a load another caller started
}

// Do runs the loader deduplicated by key. timeout bounds the detached
// load; zero means unbounded.
func (g *flightGroup) Do(ctx context.Context, key string, timeout time.Duration, loader Loader) flightResult {
	g.mu.Lock()
	g.waiters[key]++
	if _, ok := g.started[key]; !ok {
		g.started[key] = time.Now()
	}
	g.mu.Unlock()

	// ran records whether this caller's own function executed, which is
	// exactly the "did I start the load" question: singleflight runs the
	// first caller's function and hands every later joiner its result.
	// The write settles before the channel delivers, so the read below
	// is safe.
	ran := false
	ch := g.sf.DoChan(key, func() (any, error) {
		ran = true
		// Detach from the initiating caller so its cancellation does
		// not fail the load for the other waiters.
		loadCtx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, timeout)
			defer cancel()
		}
		return loader(loadCtx)
	})

	defer func() {
		g.mu.Lock()
		g.waiters[key]--
		if g.waiters[key] <= 0 {
			delete(g.waiters, key)
			delete(g.started, key)
		}
		g.mu.Unlock()
	}()

	select {
	case res := <-ch:
		var value []byte
		if res.Val != nil {
			value = res.Val.([]byte)
		}
		return flightResult{value: value, err: res.Err, shared: !ran}
	case <-ctx.Done():
		// Only this waiter stops; the load continues for the rest.
		return flightResult{err: ctx.Err()}
	}
}

// Waiters returns the number of callers currently waiting on key.
func (g *flightGroup) Waiters(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters[key]
}

// StartedAt returns when the in-flight load for key began, if any.
func (g *flightGroup) StartedAt(key string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.started[key]
	return t, ok
}
