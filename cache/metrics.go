package cache

import (
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time snapshot of engine counters.
type Metrics struct {
	Hits         uint64
	Misses       uint64
	HitRate      float64
	Evictions    uint64
	AvgLoadMs    float64
	DedupedCalls uint64

	// StaleServes counts reads answered from the grace window while a
	// refresh ran in the background.
	StaleServes uint64

	// BackingHits counts reads answered by the second tier.
	BackingHits uint64
}

// counters accumulates engine metrics. All fields are atomics so the
// hot path never takes the store lock just to count.
type counters struct {
	hits         atomic.Uint64
	misses       atomic.Uint64
	deduped      atomic.Uint64
	staleServes  atomic.Uint64
	backingHits  atomic.Uint64
	loadCount    atomic.Uint64
	loadTotalNs  atomic.Int64
	refreshFails atomic.Uint64
}

func (c *counters) hit()        { c.hits.Add(1) }
func (c *counters) miss()       { c.misses.Add(1) }
func (c *counters) dedup()      { c.deduped.Add(1) }
func (c *counters) staleServe() { c.staleServes.Add(1) }
func (c *counters) backingHit() { c.backingHits.Add(1) }

func (c *counters) load(d time.Duration) {
	c.loadCount.Add(1)
	c.loadTotalNs.Add(int64(d))
}

func (c *counters) snapshot(evictions uint64) Metrics {
	m := Metrics{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    evictions,
		DedupedCalls: c.deduped.Load(),
		StaleServes:  c.staleServes.Load(),
		BackingHits:  c.backingHits.Load(),
	}
	if total := m.Hits + m.Misses; total > 0 {
		m.HitRate = float64(m.Hits) / float64(total)
	}
	if n := c.loadCount.Load(); n > 0 {
		m.AvgLoadMs = float64(c.loadTotalNs.Load()) / float64(n) / float64(time.Millisecond)
	}
	return m
}
