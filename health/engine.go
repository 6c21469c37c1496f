package health

import (
	"context"
	"fmt"
)

// EngineStats is the snapshot the engine checker evaluates. The caller
// maps its cache engine's metrics into this shape, keeping the health
// package free of a dependency on the engine itself.
type EngineStats struct {
	Hits          uint64
	Misses        uint64
	HitRate       float64
	Evictions     uint64
	SizeBytes     int64
	CapacityBytes int64
}

// StatsFunc supplies a current stats snapshot.
type StatsFunc func() EngineStats

// EngineCheckerConfig configures the engine health checker.
type EngineCheckerConfig struct {
	// MinHitRate is the hit rate below which the cache is reported
	// degraded. Ignored until MinSamples lookups have happened.
	// Default: 0 (disabled)
	MinHitRate float64

	// MinSamples is the lookup count before MinHitRate applies.
	// Default: 100
	MinSamples uint64

	// UtilizationWarning is the size/capacity ratio that reports
	// degraded status. Values outside (0, 1) disable the check.
	// Default: 0.9
	UtilizationWarning float64
}

// EngineChecker reports cache effectiveness: a cache that misses
// constantly or runs at capacity still works, so this checker degrades
// rather than fails.
type EngineChecker struct {
	config EngineCheckerConfig
	stats  StatsFunc
}

// NewEngineChecker creates an engine health checker.
func NewEngineChecker(config EngineCheckerConfig, stats StatsFunc) *EngineChecker {
	if config.MinSamples == 0 {
		config.MinSamples = 100
	}
	if config.UtilizationWarning == 0 {
		config.UtilizationWarning = 0.9
	}
	return &EngineChecker{config: config, stats: stats}
}

// Name returns the name of this checker.
func (c *EngineChecker) Name() string {
	return "engine"
}

// Check evaluates the current stats snapshot.
func (c *EngineChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	s := c.stats()
	details := map[string]any{
		"hits":           s.Hits,
		"misses":         s.Misses,
		"hit_rate":       s.HitRate,
		"evictions":      s.Evictions,
		"size_bytes":     s.SizeBytes,
		"capacity_bytes": s.CapacityBytes,
	}

	lookups := s.Hits + s.Misses
	if c.config.MinHitRate > 0 && lookups >= c.config.MinSamples && s.HitRate < c.config.MinHitRate {
		return Degraded(fmt.Sprintf("hit rate %.2f below threshold %.2f",
			s.HitRate, c.config.MinHitRate)).WithDetails(details)
	}

	if c.config.UtilizationWarning > 0 && c.config.UtilizationWarning < 1 && s.CapacityBytes > 0 {
		util := float64(s.SizeBytes) / float64(s.CapacityBytes)
		details["utilization"] = util
		if util >= c.config.UtilizationWarning {
			return Degraded(fmt.Sprintf("store utilization %.0f%%", util*100)).WithDetails(details)
		}
	}

	return Healthy("cache effective").WithDetails(details)
}
