package panelAuth

import (
	"errors"
	"time"
)

// Config defines the tunable behavior of a [Manager].
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Init    InitConfig
	Cache   CacheConfig
	Roles   RolesConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
INIT CONFIG
====================================
*/

// InitConfig controls the Initialize reconciliation loop.
type InitConfig struct {
	// Retries is the number of additional session lookup attempts after a
	// transport failure. Zero means a single attempt.
	Retries int
	// RetryDelay is the fixed wait between attempts (no backoff growth).
	RetryDelay time.Duration
	// WaitTimeout bounds how long a concurrent Initialize caller waits for
	// the in-flight initialization before returning the current snapshot.
	WaitTimeout time.Duration
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig controls local snapshot persistence.
type CacheConfig struct {
	// Key is the cache entry name the snapshot is stored under.
	Key string
	// DropExpiredToken discards a cached bearer token whose JWT exp claim
	// is already in the past, instead of presenting it as live during
	// hydration. Tokens that do not parse as JWTs are kept as-is.
	DropExpiredToken bool
}

/*
====================================
ROLES CONFIG
====================================
*/

// RolesConfig maps profile-row values onto panel authorization.
type RolesConfig struct {
	// SuperadminRole is the profile role value that grants superadmin.
	SuperadminRole string
	// ManagePermission is the capability every superadmin always holds.
	ManagePermission string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the hosted panel ships with.
func DefaultConfig() Config {
	return Config{
		Init: InitConfig{
			Retries:     2,
			RetryDelay:  400 * time.Millisecond,
			WaitTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Key:              "pandda_session_v1",
			DropExpiredToken: true,
		},
		Roles: RolesConfig{
			SuperadminRole:   "superadmin",
			ManagePermission: "admin.manage",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate checks the configuration for values the Manager cannot operate
// with. Builder.Build calls it; direct callers only need it when mutating a
// Config by hand.
func (c Config) Validate() error {
	if c.Init.Retries < 0 {
		return errors.New("Init.Retries must be >= 0")
	}
	if c.Init.RetryDelay < 0 {
		return errors.New("Init.RetryDelay must be >= 0")
	}
	if c.Init.WaitTimeout <= 0 {
		return errors.New("Init.WaitTimeout must be > 0")
	}
	if c.Cache.Key == "" {
		return errors.New("Cache.Key must not be empty")
	}
	if c.Roles.SuperadminRole == "" {
		return errors.New("Roles.SuperadminRole must not be empty")
	}
	if c.Roles.ManagePermission == "" {
		return errors.New("Roles.ManagePermission must not be empty")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}
