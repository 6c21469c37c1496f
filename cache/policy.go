package cache

import "time"

// Freshness classifies an entry's age against its TTL.
type Freshness int

const (
	// Fresh means the entry is within its TTL.
	Fresh Freshness = iota
	// Stale means the entry is past its TTL but inside the grace
	// window and may be served while a refresh runs.
	Stale
	// Expired means the entry is unusable.
	Expired
)

// String returns the string representation of the freshness state.
func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Policy decides freshness and computes adaptive TTL adjustments.
type Policy struct {
	// DefaultTTL is used when a write specifies no TTL.
	DefaultTTL time.Duration

	// MinTTL and MaxTTL bound adaptive TTL adjustments and clamp
	// caller-supplied TTLs. Zero MaxTTL means unbounded.
	MinTTL time.Duration
	MaxTTL time.Duration

	// GraceMultiplier extends usability past expiry: an entry is stale
	// but usable until TTL*GraceMultiplier after creation. Zero
	// disables the grace window.
	GraceMultiplier float64

	// AdaptiveTTL enables TTL adjustment from observed access rates.
	AdaptiveTTL bool

	// HotRate and ColdRate are accesses-per-second thresholds above
	// and below which TTL is raised or lowered.
	HotRate  float64
	ColdRate float64

	// Smoothing is the EMA factor applied to observed access rates,
	// in (0, 1]. Smaller values react more slowly.
	Smoothing float64
}

// DefaultPolicy returns the default staleness policy:
// 5 minute default TTL, 1 hour max, grace disabled, adaptive TTL off.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
		HotRate:    1.0,
		ColdRate:   0.01,
		Smoothing:  0.3,
	}
}

// Freshness classifies the entry at the given instant.
//
// TTL=0 means never fresh: every read reloads. With a grace window
// configured the entry is still usable as a stale fallback.
func (p Policy) Freshness(e *Entry, now time.Time) Freshness {
	if e.TTL <= 0 {
		if p.GraceMultiplier > 0 {
			return Stale
		}
		return Expired
	}

	age := e.Age(now)
	if age < e.TTL {
		return Fresh
	}
	if p.GraceMultiplier > 0 {
		grace := time.Duration(float64(e.TTL) * p.GraceMultiplier)
		if age < grace {
			return Stale
		}
	}
	return Expired
}

// NeverFresh is the TTL override requesting never-fresh semantics:
// the entry is written but every read triggers a reload.
const NeverFresh time.Duration = -1

// EffectiveTTL returns the TTL to use for a write, applying the default
// and clamping to [MinTTL, MaxTTL]. A zero override means unspecified
// and falls back to the default; NeverFresh yields a zero TTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl == 0 {
		ttl = p.DefaultTTL
	}
	if ttl < 0 {
		return 0
	}
	if p.MinTTL > 0 && ttl < p.MinTTL {
		ttl = p.MinTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// NextTTL recomputes an entry's TTL from its smoothed access rate:
// raised for hot entries, lowered for cold ones, unchanged in between.
// It also folds the latest observation into the entry's moving average.
func (p Policy) NextTTL(e *Entry, now time.Time) time.Duration {
	if !p.AdaptiveTTL || e.TTL <= 0 {
		return e.TTL
	}

	e.accessRate = p.observeRate(e, now)

	ttl := e.TTL
	switch {
	case e.accessRate >= p.HotRate:
		ttl = e.TTL * 2
	case e.accessRate <= p.ColdRate:
		ttl = e.TTL / 2
	}

	if p.MinTTL > 0 && ttl < p.MinTTL {
		ttl = p.MinTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// observeRate folds the instantaneous access rate into the entry's EMA.
// Smoothing avoids oscillating between hot and cold on bursty traffic.
func (p Policy) observeRate(e *Entry, now time.Time) float64 {
	age := e.Age(now).Seconds()
	if age <= 0 {
		age = 1
	}
	instant := float64(e.AccessCount) / age

	alpha := p.Smoothing
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	if e.accessRate == 0 {
		return instant
	}
	return alpha*instant + (1-alpha)*e.accessRate
}

// Validate checks the policy for construction-time errors.
func (p Policy) Validate() error {
	if p.GraceMultiplier < 0 {
		return ErrInvalidGrace
	}
	if p.MaxTTL > 0 && p.MinTTL > p.MaxTTL {
		return ErrInvalidTTLBounds
	}
	if p.Smoothing < 0 || p.Smoothing > 1 {
		return ErrInvalidSmoothing
	}
	return nil
}
