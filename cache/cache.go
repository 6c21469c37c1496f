package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilEngine  = errors.New("cache: engine is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrNilLoader  = errors.New("cache: loader is nil")
)

// Configuration errors. Construction is the only point where the engine
// fails fast; everything after degrades gracefully.
var (
	ErrNegativeCapacity  = errors.New("cache: local capacity must not be negative")
	ErrInvalidEviction   = errors.New("cache: unknown eviction policy")
	ErrInvalidGrace      = errors.New("cache: stale grace multiplier must not be negative")
	ErrInvalidTTLBounds  = errors.New("cache: min TTL must not exceed max TTL")
	ErrInvalidSmoothing  = errors.New("cache: smoothing factor must be in (0, 1]")
	ErrNegativeTimeout   = errors.New("cache: timeout must not be negative")
	ErrNegativeRefreshes = errors.New("cache: max concurrent refreshes must not be negative")
)

// Loader produces the value for a key on a cache miss. It is the only
// operation the engine expects to block on real I/O, and the engine
// guarantees at most one concurrent invocation per key.
type Loader func(ctx context.Context) ([]byte, error)

// CodecError reports a value that could not be serialized or
// deserialized. It is non-fatal: the engine passes the value through
// uncached and logs the condition.
type CodecError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("cache: codec %s failed: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// IsCodecError reports whether err is (or wraps) a CodecError.
func IsCodecError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
