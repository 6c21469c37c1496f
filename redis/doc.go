// Package redis implements the cache.BackingStore interface on a Redis
// server, giving the engine a distributed second tier. Tags are kept as
// Redis sets so group invalidation is a set read plus a batched delete;
// pattern invalidation walks the store's key prefix with SCAN.
package redis
