package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds a full CheckAll pass. Default: 10 seconds.
	Timeout time.Duration

	// Parallel runs checks concurrently. Default: true.
	Parallel bool
}

// Aggregator combines multiple health checkers into a single composite
// check, e.g. the engine checker and a backing-store checker reported
// together under one readiness endpoint.
type Aggregator struct {
	cfg    AggregatorConfig
	mu     sync.RWMutex
	byName map[string]Checker
	names  []string // registration order
}

// NewAggregator creates a health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Timeout: 10 * time.Second, Parallel: true}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 10 * time.Second
		}
	}
	return &Aggregator{cfg: cfg, byName: make(map[string]Checker)}
}

// Register adds a checker under the given name, replacing any previous
// checker with that name.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byName[name]; !exists {
		a.names = append(a.names, name)
	}
	a.byName[name] = checker
}

// Unregister removes a checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.byName, name)
	for i, n := range a.names {
		if n == name {
			a.names = append(a.names[:i], a.names[i+1:]...)
			break
		}
	}
}

// CheckerNames returns registered checker names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Check runs the named checker.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.byName[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return a.runOne(ctx, checker), nil
}

// CheckAll runs every registered checker and returns results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	names := make([]string, len(a.names))
	copy(names, a.names)
	checkers := make([]Checker, len(names))
	for i, n := range names {
		checkers[i] = a.byName[n]
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(names))
	if len(names) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	if !a.cfg.Parallel {
		for i, name := range names {
			results[name] = a.runOne(ctx, checkers[i])
		}
		return results
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, name := range names {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			r := a.runOne(ctx, c)
			mu.Lock()
			results[name] = r
			mu.Unlock()
		}(name, checkers[i])
	}
	wg.Wait()

	return results
}

// OverallStatus reduces a result set to a single status: unhealthy if
// any check is unhealthy, else degraded if any is degraded, else
// healthy. An empty set is healthy.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}

// runOne executes a checker in its own goroutine so a checker that
// ignores its context still cannot stall the caller past the deadline.
func (a *Aggregator) runOne(ctx context.Context, checker Checker) Result {
	start := time.Now()
	ch := make(chan Result, 1)

	go func() {
		r := checker.Check(ctx)
		r.Duration = time.Since(start)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}

// Checker adapts the aggregator itself into a Checker, so a composite
// cache health check can nest inside a larger service aggregator.
func (a *Aggregator) Checker() Checker {
	return &compositeChecker{agg: a}
}

type compositeChecker struct {
	agg *Aggregator
}

func (c *compositeChecker) Name() string { return "aggregate" }

func (c *compositeChecker) Check(ctx context.Context) Result {
	results := c.agg.CheckAll(ctx)
	status := c.agg.OverallStatus(results)

	details := make(map[string]any, len(results))
	for name, r := range results {
		details[name] = map[string]any{
			"status":   r.Status.String(),
			"message":  r.Message,
			"duration": r.Duration.String(),
		}
	}

	msg := "all checks passed"
	switch status {
	case StatusDegraded:
		msg = "some checks degraded"
	case StatusUnhealthy:
		msg = "some checks failed"
	}

	return Result{
		Status:    status,
		Message:   msg,
		Details:   details,
		Timestamp: time.Now(),
	}
}
