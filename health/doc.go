// Package health provides health checking primitives for cache
// deployments: checkers for the engine's effectiveness and its backing
// store's reachability, an aggregator, and HTTP probe handlers.
//
// # Basic Usage
//
//	stats := health.NewEngineChecker(health.EngineCheckerConfig{
//	    MinHitRate: 0.2,
//	}, statsFn)
//
//	result := stats.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("cache unhealthy: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
//	agg := health.NewAggregator()
//	agg.Register("engine", engineChecker)
//	agg.Register("backing", backingChecker)
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
