// Package cache provides a layered request-result cache with in-flight
// deduplication and TTL-based invalidation.
//
// It composes a byte-capacity local store with an optional distributed
// backing tier, SHA-256 key derivation from request descriptors, a
// staleness policy with grace windows and adaptive TTL, and a
// singleflight-based tracker that collapses concurrent loads for the
// same key into a single execution.
package cache
