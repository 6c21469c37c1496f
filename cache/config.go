package cache

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/requestcache/observe"
)

// Config holds all construction options for an Engine. Invalid options
// fail fast at construction; nothing after construction is fatal.
type Config struct {
	// Name identifies this engine in logs and telemetry. Useful when a
	// process runs several independent caches. Default: "requestcache".
	Name string

	// LocalCapacityBytes bounds the in-process tier. Zero means unbounded.
	LocalCapacityBytes int64

	// Eviction selects the local eviction policy. Default: EvictLRU.
	Eviction EvictionPolicy

	// Policy is the staleness policy. Zero value gets DefaultPolicy
	// fields applied where unset.
	Policy Policy

	// BackingStore is the optional distributed second tier, shared by
	// reference and never owned by the engine.
	BackingStore BackingStore

	// BackingTimeout bounds every backing store call.
	// Default: 250ms.
	BackingTimeout time.Duration

	// LoadTimeout bounds every loader invocation, including detached
	// background refreshes. Default: 30s.
	LoadTimeout time.Duration

	// MaxConcurrentRefreshes bounds stale-while-revalidate background
	// loads. Default: 8.
	MaxConcurrentRefreshes int

	// RefreshRatePerSec optionally throttles background refreshes.
	// Zero disables throttling.
	RefreshRatePerSec float64

	// Codec serializes values at the API boundary. Default: JSONCodec.
	Codec Codec

	// Keyer derives keys from request descriptors. Default: DefaultKeyer.
	Keyer Keyer

	// Logger receives structured events. Default: no logging.
	Logger observe.Logger

	// Instruments optionally records OpenTelemetry metrics and spans.
	Instruments *observe.CacheInstruments

	// now is the clock, swappable in tests.
	now func() time.Time
}

// withDefaults returns a copy with defaults applied.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "requestcache"
	}
	if c.Eviction == "" {
		c.Eviction = EvictLRU
	}
	if c.Policy == (Policy{}) {
		c.Policy = DefaultPolicy()
	} else {
		// Backfill unset fields one by one so a partial policy keeps
		// every bound the caller did set. MaxTTL stays untouched: on a
		// non-zero policy, zero means unbounded.
		def := DefaultPolicy()
		if c.Policy.DefaultTTL == 0 {
			c.Policy.DefaultTTL = def.DefaultTTL
		}
		if c.Policy.HotRate == 0 {
			c.Policy.HotRate = def.HotRate
		}
		if c.Policy.ColdRate == 0 {
			c.Policy.ColdRate = def.ColdRate
		}
		if c.Policy.Smoothing == 0 {
			c.Policy.Smoothing = def.Smoothing
		}
	}
	if c.BackingTimeout == 0 {
		c.BackingTimeout = 250 * time.Millisecond
	}
	if c.LoadTimeout == 0 {
		c.LoadTimeout = 30 * time.Second
	}
	if c.MaxConcurrentRefreshes == 0 {
		c.MaxConcurrentRefreshes = 8
	}
	if c.Codec == nil {
		c.Codec = NewJSONCodec()
	}
	if c.Keyer == nil {
		c.Keyer = NewDefaultKeyer()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Validate checks the configuration. The returned errors are the only
// class that should prevent engine startup.
func (c Config) Validate() error {
	if c.LocalCapacityBytes < 0 {
		return ErrNegativeCapacity
	}
	if !c.Eviction.valid() {
		return ErrInvalidEviction
	}
	if c.BackingTimeout < 0 || c.LoadTimeout < 0 {
		return ErrNegativeTimeout
	}
	if c.MaxConcurrentRefreshes < 0 {
		return ErrNegativeRefreshes
	}
	return c.Policy.Validate()
}

// envConfig is the environment-variable form of Config.
type envConfig struct {
	LocalCapacityBytes     int64         `env:"CACHE_LOCAL_CAPACITY_BYTES" envDefault:"0"`
	Eviction               string        `env:"CACHE_EVICTION_POLICY" envDefault:"lru"`
	DefaultTTL             time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"5m"`
	MinTTL                 time.Duration `env:"CACHE_MIN_TTL" envDefault:"0"`
	MaxTTL                 time.Duration `env:"CACHE_MAX_TTL" envDefault:"1h"`
	GraceMultiplier        float64       `env:"CACHE_STALE_GRACE_MULTIPLIER" envDefault:"0"`
	AdaptiveTTL            bool          `env:"CACHE_ADAPTIVE_TTL" envDefault:"false"`
	BackingTimeout         time.Duration `env:"CACHE_BACKING_TIMEOUT" envDefault:"250ms"`
	LoadTimeout            time.Duration `env:"CACHE_LOAD_TIMEOUT" envDefault:"30s"`
	MaxConcurrentRefreshes int           `env:"CACHE_MAX_CONCURRENT_REFRESHES" envDefault:"8"`
	RefreshRatePerSec      float64       `env:"CACHE_REFRESH_RATE_PER_SEC" envDefault:"0"`
}

// ConfigFromEnv builds a Config from CACHE_* environment variables.
// The backing store, codec, keyer, and logger are code-level concerns
// and are left for the caller to fill in.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LocalCapacityBytes: ec.LocalCapacityBytes,
		Eviction:           EvictionPolicy(ec.Eviction),
		Policy: Policy{
			DefaultTTL:      ec.DefaultTTL,
			MinTTL:          ec.MinTTL,
			MaxTTL:          ec.MaxTTL,
			GraceMultiplier: ec.GraceMultiplier,
			AdaptiveTTL:     ec.AdaptiveTTL,
			HotRate:         1.0,
			ColdRate:        0.01,
			Smoothing:       0.3,
		},
		BackingTimeout:         ec.BackingTimeout,
		LoadTimeout:            ec.LoadTimeout,
		MaxConcurrentRefreshes: ec.MaxConcurrentRefreshes,
		RefreshRatePerSec:      ec.RefreshRatePerSec,
	}
	return cfg, cfg.Validate()
}

// Options are the per-call knobs for Get and Set.
type Options struct {
	// TTL overrides the policy default for this entry. Zero means
	// unspecified; NeverFresh requests reload-every-read semantics.
	TTL time.Duration

	// Tags label the entry for group invalidation.
	Tags []string

	// StaleWhileRevalidate serves an entry from the grace window
	// immediately while a detached refresh updates both tiers.
	StaleWhileRevalidate bool
}
