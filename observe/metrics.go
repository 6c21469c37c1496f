package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheInstruments records cache telemetry as OpenTelemetry metrics.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: must return quickly; recording never blocks the cache path.
// - Errors: recording must not panic.
type CacheInstruments struct {
	lookups      metric.Int64Counter
	evictions    metric.Int64Counter
	deduped      metric.Int64Counter
	refreshes    metric.Int64Counter
	loadDuration metric.Float64Histogram
}

// NewCacheInstruments creates cache instruments on the given meter.
func NewCacheInstruments(meter metric.Meter) (*CacheInstruments, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups.total",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions.total",
		metric.WithDescription("Total number of capacity evictions"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	deduped, err := meter.Int64Counter(
		"cache.loads.deduped.total",
		metric.WithDescription("Redundant loads avoided by request collapsing"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	refreshes, err := meter.Int64Counter(
		"cache.refreshes.total",
		metric.WithDescription("Background revalidations triggered"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"cache.load.duration_ms",
		metric.WithDescription("Loader execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheInstruments{
		lookups:      lookups,
		evictions:    evictions,
		deduped:      deduped,
		refreshes:    refreshes,
		loadDuration: loadDuration,
	}, nil
}

// RecordLookup records one lookup with its answering tier and outcome.
func (c *CacheInstruments) RecordLookup(ctx context.Context, cacheName, tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cacheName),
		attribute.String("tier", tier),
		attribute.String("result", result),
	))
}

// RecordLoad records one loader execution.
func (c *CacheInstruments) RecordLoad(ctx context.Context, cacheName string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("cache", cacheName),
		attribute.Bool("error", err != nil),
	)
	c.loadDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordDedup records one load avoided by request collapsing.
func (c *CacheInstruments) RecordDedup(ctx context.Context, cacheName string) {
	c.deduped.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cacheName)))
}

// RecordEvictions records capacity evictions.
func (c *CacheInstruments) RecordEvictions(ctx context.Context, cacheName string, n int64) {
	c.evictions.Add(ctx, n, metric.WithAttributes(attribute.String("cache", cacheName)))
}

// RecordRefresh records a background revalidation outcome.
func (c *CacheInstruments) RecordRefresh(ctx context.Context, cacheName string, err error) {
	c.refreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cacheName),
		attribute.Bool("error", err != nil),
	))
}
