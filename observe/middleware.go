package observe

import (
	"context"
	"time"
)

// LoaderFunc is the signature of cache loaders as seen by telemetry.
type LoaderFunc func(ctx context.Context) ([]byte, error)

// Middleware wraps loader executions with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe LoaderFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped loader are recorded and propagated unchanged.
type Middleware struct {
	tracer      Tracer
	instruments *CacheInstruments
	logger      Logger
}

// NewMiddleware creates a new Middleware with the given telemetry components.
func NewMiddleware(tracer Tracer, instruments *CacheInstruments, logger Logger) *Middleware {
	return &Middleware{
		tracer:      tracer,
		instruments: instruments,
		logger:      logger,
	}
}

// Wrap instruments a loader for the given cache and key.
func (m *Middleware) Wrap(cacheName, key string, fn LoaderFunc) LoaderFunc {
	return func(ctx context.Context) ([]byte, error) {
		meta := OpMeta{Cache: cacheName, Op: "load", Key: key}
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		result, err := fn(ctx)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		if m.instruments != nil {
			m.instruments.RecordLoad(ctx, cacheName, duration, err)
		}

		logger := m.logger.WithCache(cacheName)
		fields := []Field{
			{Key: "key", Value: key},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "load failed", fields...)
		} else {
			logger.Debug(ctx, "load completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	instruments, err := NewCacheInstruments(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), instruments, obs.Logger()), nil
}
