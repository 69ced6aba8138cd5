package goSession

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/clock"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/session"
)

// Builder assembles a Manager. A Builder is single-use.
type Builder struct {
	config   Config
	store    session.Store
	identity *identity.Client
	clock    Clock
	logger   *zap.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Without it Build opens the backend
// named by Config.Store.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithIdentityClient sets the Identity Service client. Without it Build
// creates one when Config.Identity.BaseURL is set.
func (b *Builder) WithIdentityClient(c *identity.Client) *Builder {
	b.identity = c
	return b
}

// WithClock replaces the wall clock. Tests pass a clock.Fake.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// The sink only receives events when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Identity Service latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an Uninitialized Manager.
// Call Hydrate before Login.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := b.clock
	if clk == nil {
		clk = clock.Real{}
	}

	m := &Manager{
		config:     cfg,
		key:        cfg.Session.Key,
		clock:      clk,
		logger:     logger.Named("session"),
		metrics:    NewMetrics(cfg.Metrics),
		closeStore: func() error { return nil },
		state:      StateUninitialized,
		ready:      make(chan struct{}),
	}

	// -------- CREDENTIAL STORE --------
	if b.store != nil {
		m.store = b.store
	} else {
		opts := cfg.Store.options()
		opts.Logger = logger
		store, closeFn, err := session.OpenStore(opts)
		if err != nil {
			return nil, err
		}
		m.store = store
		m.closeStore = closeFn
	}

	// -------- IDENTITY CLIENT --------
	m.identity = b.identity
	if m.identity == nil && cfg.Identity.BaseURL != "" {
		metrics := m.metrics
		client, err := identity.New(identity.Config{
			Config: apiclient.Config{
				BaseURL:         cfg.Identity.BaseURL,
				Timeout:         cfg.Identity.Timeout,
				MaxResponseSize: cfg.Identity.MaxResponseSize,
				RequestsPerSec:  cfg.Identity.RequestsPerSecond,
				Burst:           cfg.Identity.Burst,
				Logger:          logger,
				Observe: func(_ string, elapsed time.Duration, _ error) {
					metrics.Observe(MetricIdentityLatency, elapsed)
				},
			},
			IDFields: cfg.Identity.IDFields,
		})
		if err != nil {
			_ = m.closeStore()
			return nil, err
		}
		m.identity = client
	}

	m.attempts = rate.NewLoginAttempts(rate.LoginConfig{
		MaxLoginAttempts: cfg.Identity.MaxLoginAttempts,
		LoginCooldown:    cfg.Identity.LoginCooldown,
	})
	m.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true

	return m, nil
}
