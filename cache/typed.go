package cache

import (
	"context"

	"github.com/jonwraymond/requestcache/observe"
)

// Get returns the typed value for key, loading it through loader on a
// miss. Each call site fixes its own concrete type; the engine
// internals stay value-shape-agnostic and operate on bytes.
//
// Codec failures are non-fatal: the value is passed through uncached
// and the condition is logged.
func Get[T any](ctx context.Context, e *Engine, key string, loader func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	if e == nil {
		return zero, ErrNilEngine
	}
	if loader == nil {
		return zero, ErrNilLoader
	}

	rawLoader := func(ctx context.Context) ([]byte, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return e.cfg.Codec.Encode(v)
	}

	data, err := e.GetBytes(ctx, key, rawLoader, opts)
	if err != nil {
		if IsCodecError(err) {
			return passThrough(ctx, e, key, loader, err)
		}
		return zero, err
	}

	var out T
	if err := e.cfg.Codec.Decode(data, &out); err != nil {
		// Stored bytes no longer decode to T. Drop them and fall back
		// to the loader so the next read recovers cleanly.
		e.Invalidate(ctx, key)
		return passThrough(ctx, e, key, loader, err)
	}
	return out, nil
}

// Set writes a typed value directly, bypassing loaders. A codec failure
// leaves the value uncached and is logged, never surfaced.
func Set[T any](ctx context.Context, e *Engine, key string, value T, opts Options) error {
	if e == nil {
		return ErrNilEngine
	}
	data, err := e.cfg.Codec.Encode(value)
	if err != nil {
		e.logWarn(ctx, "value not cacheable",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil
	}
	return e.SetBytes(ctx, key, data, opts)
}

// passThrough serves the caller directly from its loader after a codec
// failure, leaving the cache out of the path.
func passThrough[T any](ctx context.Context, e *Engine, key string, loader func(context.Context) (T, error), cause error) (T, error) {
	e.logWarn(ctx, "codec failure, passing value through uncached",
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "error", Value: cause.Error()},
	)
	return loader(ctx)
}
