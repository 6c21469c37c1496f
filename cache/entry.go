package cache

import "time"

// Entry is one stored result. Value bytes are opaque to the store; the
// codec gives them meaning at the API boundary.
type Entry struct {
	// Key is the cache key this entry is stored under.
	Key string

	// Value is the serialized result.
	Value []byte

	// Tags label the entry for group invalidation.
	Tags []string

	// TTL is how long the entry is considered fresh after CreatedAt.
	// Zero means never fresh: every read triggers a reload.
	TTL time.Duration

	// CreatedAt is when the entry was written.
	CreatedAt time.Time

	// AccessCount and LastAccessedAt feed eviction and adaptive TTL.
	AccessCount    int64
	LastAccessedAt time.Time

	// Size is the approximate footprint used for capacity accounting.
	Size int64

	// accessRate is an exponential moving average of accesses per
	// second, maintained by the staleness policy.
	accessRate float64
}

// newEntry builds an entry with its size precomputed.
func newEntry(key string, value []byte, ttl time.Duration, tags []string, now time.Time) *Entry {
	return &Entry{
		Key:            key,
		Value:          value,
		Tags:           tags,
		TTL:            ttl,
		CreatedAt:      now,
		LastAccessedAt: now,
		Size:           entrySize(key, value, tags),
	}
}

// entrySize approximates the in-memory footprint of an entry.
func entrySize(key string, value []byte, tags []string) int64 {
	size := int64(len(key) + len(value))
	for _, t := range tags {
		size += int64(len(t))
	}
	// Fixed overhead for the struct itself and map bookkeeping.
	return size + 96
}

// Age returns how long ago the entry was created.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// touch records a read hit.
func (e *Entry) touch(now time.Time) {
	e.AccessCount++
	e.LastAccessedAt = now
}
