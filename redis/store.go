package redis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/requestcache/cache"
)

// scanBatch is the COUNT hint for SCAN iterations.
const scanBatch = 256

// ErrNilClient indicates a Store was constructed without a client.
var ErrNilClient = errors.New("redis: client is nil")

// Config configures the Redis backing store.
type Config struct {
	// Prefix namespaces every key this store writes, so several caches
	// can share one Redis without colliding. Default: "reqcache".
	Prefix string

	// TagTTL bounds how long tag membership sets live. It should be at
	// least as long as the longest entry TTL. Default: 24h.
	TagTTL time.Duration
}

// Store is a Redis-backed cache.BackingStore.
//
// The store is shared by reference: it never closes the client, and
// the engine treats every error it returns as a miss.
type Store struct {
	client redis.UniversalClient
	prefix string
	tagTTL time.Duration
}

// NewStore creates a backing store on the given client.
func NewStore(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "reqcache"
	}
	if cfg.TagTTL <= 0 {
		cfg.TagTTL = 24 * time.Hour
	}
	return &Store{
		client: client,
		prefix: cfg.Prefix,
		tagTTL: cfg.TagTTL,
	}, nil
}

// Get retrieves stored bytes. Returns (nil, false, nil) on miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return data, true, nil
}

// Set stores bytes with the given TTL and records tag membership.
// A zero TTL entry is written with the tag TTL so it can still serve
// as a stale fallback.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	expiry := ttl
	if expiry <= 0 {
		expiry = s.tagTTL
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.entryKey(key), value, expiry)
	for _, tag := range tags {
		tk := s.tagKey(tag)
		pipe.SAdd(ctx, tk, key)
		pipe.Expire(ctx, tk, s.tagTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Reports whether it was present.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.entryKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: delete %q: %w", key, err)
	}
	return n > 0, nil
}

// DeleteByTag removes every key in the tag's membership set.
func (s *Store) DeleteByTag(ctx context.Context, tag string) (int, error) {
	tk := s.tagKey(tag)
	members, err := s.client.SMembers(ctx, tk).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: members of tag %q: %w", tag, err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, s.entryKey(m))
	}
	keys = append(keys, tk)

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: delete tag %q: %w", tag, err)
	}
	// Exclude the tag set itself from the reported count.
	removed := int(n) - 1
	if removed < 0 {
		removed = 0
	}
	return removed, nil
}

// DeleteByPattern scans the store's prefix and removes every logical
// key matching the pattern. Matching happens client-side because Redis
// MATCH globs cannot express a regexp.
func (s *Store) DeleteByPattern(ctx context.Context, pattern *regexp.Regexp) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	match := s.prefix + ":entry:*"

	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("redis: scan %q: %w", match, err)
		}

		var victims []string
		for _, k := range keys {
			if pattern.MatchString(s.logicalKey(k)) {
				victims = append(victims, k)
			}
		}
		if len(victims) > 0 {
			n, err := s.client.Del(ctx, victims...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis: delete by pattern: %w", err)
			}
			removed += int(n)
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Ping reports whether the Redis server is reachable. Used by health
// checks; the engine itself never calls it.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// entryKey maps a logical cache key to its Redis key.
func (s *Store) entryKey(key string) string {
	return s.prefix + ":entry:" + key
}

// tagKey maps a tag to its membership set key.
func (s *Store) tagKey(tag string) string {
	return s.prefix + ":tag:" + tag
}

// logicalKey recovers the cache key from a Redis entry key.
func (s *Store) logicalKey(redisKey string) string {
	return strings.TrimPrefix(redisKey, s.prefix+":entry:")
}

// Ensure Store implements cache.BackingStore
var _ cache.BackingStore = (*Store)(nil)
