package goSession

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Config is the full Manager configuration. Start from DefaultConfig.
type Config struct {
	Session   SessionConfig   `toml:"session"`
	Identity  IdentityConfig  `toml:"identity"`
	Store     StoreConfig     `toml:"store"`
	Audit     AuditConfig     `toml:"audit"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Log       LogConfig       `toml:"log"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and enrichment.
type SessionConfig struct {
	// Window is how long a session lives when Login gets no explicit expiry.
	Window time.Duration `toml:"window"`
	// Key is the logical store key of the persisted record.
	Key string `toml:"key"`
	// ExpiryFromToken caps the computed expiry by the token's exp claim.
	ExpiryFromToken bool `toml:"expiry_from_token"`
	// RoleFromTokenClaims fills a missing role from the token's role claim
	// when enrichment did not provide one.
	RoleFromTokenClaims bool `toml:"role_from_token_claims"`
	// EnrichRole enables the best-effort /auth/me call during Login.
	EnrichRole bool `toml:"enrich_role"`
	// EnrichTimeout bounds that call.
	EnrichTimeout time.Duration `toml:"enrich_timeout"`
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig configures the Identity Service client.
type IdentityConfig struct {
	BaseURL           string        `toml:"base_url"`
	Timeout           time.Duration `toml:"timeout"`
	IDFields          []string      `toml:"id_fields"`
	MaxResponseSize   int64         `toml:"max_response_size"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	MaxLoginAttempts  int           `toml:"max_login_attempts"`
	LoginCooldown     time.Duration `toml:"login_cooldown"`
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig selects the credential store backend.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
	// Passphrase enables at-rest encryption of the record.
	Passphrase string `toml:"passphrase"`
}

func (c StoreConfig) options() session.StoreOptions {
	return session.StoreOptions{
		Backend:       c.Backend,
		Dir:           c.Dir,
		Path:          c.Path,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
		Passphrase:    c.Passphrase,
	}
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `toml:"enabled"`
	BufferSize int  `toml:"buffer_size"`
	DropIfFull bool `toml:"drop_if_full"`
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool `toml:"enabled"`
	EnableLatencyHistograms bool `toml:"enable_latency_histograms"`
}

// DashboardConfig tunes the dashboard service.
type DashboardConfig struct {
	CacheTTL    time.Duration `toml:"cache_ttl"`
	DefaultDays int           `toml:"default_days"`
}

// LogConfig selects the logger built by internal/logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults every loader starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Window:        time.Hour,
			Key:           session.DefaultKey,
			EnrichRole:    true,
			EnrichTimeout: 5 * time.Second,
		},
		Identity: IdentityConfig{
			Timeout:          15 * time.Second,
			MaxResponseSize:  1 << 20,
			Burst:            1,
			MaxLoginAttempts: 5,
			LoginCooldown:    15 * time.Minute,
		},
		Store: StoreConfig{
			Backend:     session.BackendMemory,
			RedisPrefix: "gs",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Dashboard: DashboardConfig{
			CacheTTL:    time.Minute,
			DefaultDays: 7,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Identity.IDFields = append([]string(nil), cfg.Identity.IDFields...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	// Session
	if c.Session.Window <= 0 {
		return errors.New("Session Window must be > 0")
	}
	if strings.TrimSpace(c.Session.Key) == "" {
		return errors.New("Session Key must not be empty")
	}
	if c.Session.EnrichRole && c.Session.EnrichTimeout <= 0 {
		return errors.New("Session EnrichTimeout must be > 0 when EnrichRole is true")
	}

	// Identity
	if c.Identity.BaseURL != "" {
		u, err := url.Parse(c.Identity.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("Identity BaseURL %q must be an absolute http(s) URL", c.Identity.BaseURL)
		}
	}
	if c.Identity.Timeout < 0 {
		return errors.New("Identity Timeout must be >= 0")
	}
	if c.Identity.RequestsPerSecond < 0 {
		return errors.New("Identity RequestsPerSecond must be >= 0")
	}
	if c.Identity.MaxLoginAttempts < 0 {
		return errors.New("Identity MaxLoginAttempts must be >= 0")
	}
	if c.Identity.MaxLoginAttempts > 0 && c.Identity.LoginCooldown <= 0 {
		return errors.New("Identity LoginCooldown must be > 0 when MaxLoginAttempts is set")
	}
	for _, f := range c.Identity.IDFields {
		if strings.TrimSpace(f) == "" {
			return errors.New("Identity IDFields must not contain empty names")
		}
	}

	// Store
	switch strings.ToLower(c.Store.Backend) {
	case "", session.BackendMemory:
	case session.BackendFile:
		if c.Store.Dir == "" {
			return errors.New("Store Dir is required for the file backend")
		}
	case session.BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("Store Path is required for the sqlite backend")
		}
	case session.BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("Store RedisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported Store Backend %q", c.Store.Backend)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Dashboard
	if c.Dashboard.CacheTTL < 0 {
		return errors.New("Dashboard CacheTTL must be >= 0")
	}
	if c.Dashboard.DefaultDays < 1 || c.Dashboard.DefaultDays > 366 {
		return errors.New("Dashboard DefaultDays must be between 1 and 366")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported Log Level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported Log Format %q", c.Log.Format)
	}

	return nil
}
