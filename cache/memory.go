package cache

import (
	"container/list"
	"math"
	"sync"
	"time"
)

// EvictionPolicy selects the victim when the store exceeds capacity.
type EvictionPolicy string

const (
	// EvictLRU removes the least recently used entry. Required baseline.
	EvictLRU EvictionPolicy = "lru"
	// EvictLFU removes the least frequently used entry.
	EvictLFU EvictionPolicy = "lfu"
	// EvictAdaptive scores entries by a weighted mix of access rate and
	// recency and removes the lowest-scoring one.
	EvictAdaptive EvictionPolicy = "adaptive"
)

// valid reports whether the policy is one of the known values.
func (p EvictionPolicy) valid() bool {
	switch p {
	case EvictLRU, EvictLFU, EvictAdaptive, "":
		return true
	}
	return false
}

// Store is the in-process tier: a fixed-capacity key→entry map with
// recency and frequency tracking.
//
// Contract:
// - Concurrency: safe for concurrent use; all operations are atomic.
// - Capacity: Put evicts until currentSize ≤ capacity.
// - Expiry: the store does not interpret TTLs; the engine does.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*list.Element // element value is *Entry
	recency  *list.List               // front = most recently used
	capacity int64
	size     int64
	policy   EvictionPolicy

	evictions uint64
}

// NewStore creates a local store. A zero or negative capacity means
// unbounded. An empty policy defaults to LRU.
func NewStore(capacityBytes int64, policy EvictionPolicy) *Store {
	if policy == "" {
		policy = EvictLRU
	}
	return &Store{
		entries:  make(map[string]*list.Element),
		recency:  list.New(),
		capacity: capacityBytes,
		policy:   policy,
	}
}

// Get returns a snapshot of the entry for key, recording the access.
// The entry is returned even if expired; staleness is the caller's
// concern. The snapshot shares the value bytes, which are immutable
// once stored.
func (s *Store) Get(key string, now time.Time) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	e := el.Value.(*Entry)
	e.touch(now)
	s.recency.MoveToFront(el)
	return *e, true
}

// Peek returns a snapshot of the entry without recording an access.
func (s *Store) Peek(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *el.Value.(*Entry), true
}

// Update applies fn to the live entry for key under the store lock.
// Reports whether the entry was present.
func (s *Store) Update(key string, fn func(*Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	fn(el.Value.(*Entry))
	return true
}

// Put inserts or replaces the entry, evicting until the store fits its
// capacity again, and returns the number of entries evicted. An entry
// larger than the whole capacity is rejected silently: eviction never
// affects correctness, only hit rate.
func (s *Store) Put(e *Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && e.Size > s.capacity {
		return 0
	}

	if el, ok := s.entries[e.Key]; ok {
		old := el.Value.(*Entry)
		s.size -= old.Size
		el.Value = e
		s.recency.MoveToFront(el)
	} else {
		s.entries[e.Key] = s.recency.PushFront(e)
	}
	s.size += e.Size

	evicted := 0
	for s.capacity > 0 && s.size > s.capacity {
		if !s.evictOneLocked() {
			break
		}
		evicted++
	}
	return evicted
}

// Remove deletes the entry for key. Reports whether it was present.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key)
}

// RemoveWhere deletes every entry matching the predicate and returns
// the number removed.
func (s *Store) RemoveWhere(match func(*Entry) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var victims []string
	for key, el := range s.entries {
		if match(el.Value.(*Entry)) {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		s.removeLocked(key)
	}
	return len(victims)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Size returns the current footprint in bytes.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Capacity returns the configured capacity in bytes.
func (s *Store) Capacity() int64 { return s.capacity }

// Evictions returns the number of capacity evictions so far.
func (s *Store) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

func (s *Store) removeLocked(key string) bool {
	el, ok := s.entries[key]
	if !ok {
		return false
	}
	s.size -= el.Value.(*Entry).Size
	s.recency.Remove(el)
	delete(s.entries, key)
	return true
}

func (s *Store) evictOneLocked() bool {
	var victim string

	switch s.policy {
	case EvictLFU:
		victim = s.minByLocked(func(e *Entry) float64 {
			return float64(e.AccessCount)
		})
	case EvictAdaptive:
		now := time.Now()
		victim = s.minByLocked(func(e *Entry) float64 {
			return adaptiveScore(e, now)
		})
	default: // EvictLRU
		el := s.recency.Back()
		if el == nil {
			return false
		}
		victim = el.Value.(*Entry).Key
	}

	if victim == "" {
		return false
	}
	s.removeLocked(victim)
	s.evictions++
	return true
}

// minByLocked scans all entries for the lowest score. Linear, which is
// fine at the entry counts a per-process request cache holds.
func (s *Store) minByLocked(score func(*Entry) float64) string {
	best := math.Inf(1)
	var key string
	front := s.recency.Front()
	for k, el := range s.entries {
		// The most recently used entry is never the victim; otherwise a
		// fresh insert with no accesses yet would evict itself.
		if el == front && len(s.entries) > 1 {
			continue
		}
		if sc := score(el.Value.(*Entry)); sc < best {
			best = sc
			key = k
		}
	}
	return key
}

// adaptiveScore mixes the observed access rate with recency. Higher
// scores are more worth keeping.
func adaptiveScore(e *Entry, now time.Time) float64 {
	idle := now.Sub(e.LastAccessedAt).Seconds()
	recency := 1.0 / (1.0 + idle)
	return 0.6*e.accessRate + 0.4*recency
}
