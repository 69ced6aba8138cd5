package goSession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/clock"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/session"
)

// Manager owns the single active session of a client process. It restores
// the persisted record on Hydrate, keeps memory and store in step on every
// transition, and logs out when the session's expiry instant is reached.
//
// All state changes are serialized on one mutex. Identity Service calls run
// outside it; the intent and epoch counters detect transitions that happened
// meanwhile.
type Manager struct {
	config   Config
	store    session.Store
	key      string
	identity *identity.Client
	clock    Clock
	logger   *zap.Logger
	audit    *auditDispatcher
	metrics  *Metrics
	attempts *rate.LoginAttempts

	closeStore func() error

	mu         sync.Mutex
	state      State
	current    session.Session
	hasSession bool
	timer      clock.Timer
	// intent changes on every Login start and every logout.
	intent uint64
	// epoch changes on every committed transition.
	epoch  uint64
	ready  chan struct{}
	closed bool
}

// Closed reports whether Close has been called.
func (m *Manager) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// State returns the lifecycle state. It is not changed by Close.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsReady reports whether Hydrate has resolved.
func (m *Manager) IsReady() bool {
	return m.State().Ready()
}

// Ready is closed once Hydrate has resolved.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Current returns a copy of the active session. A session whose expiry has
// passed but whose timer has not yet run is reported as absent.
func (m *Manager) Current() (session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSession || m.current.Expired(m.clock.Now()) {
		return session.Session{}, false
	}
	return m.current, true
}

// Token returns the active bearer token.
func (m *Manager) Token() (string, bool) {
	s, ok := m.Current()
	if !ok {
		return "", false
	}
	return s.Token, true
}

// Identity returns the Identity Service client, or nil when none is configured.
func (m *Manager) Identity() *identity.Client {
	return m.identity
}

// Config returns a copy of the configuration the Manager was built with.
func (m *Manager) Config() Config {
	return cloneConfig(m.config)
}

// MetricsSnapshot returns a copy of the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped by a full buffer.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// Close cancels the expiry timer, flushes pending audit events and releases
// the store. The in-memory session and persisted record are left intact so a
// later process can hydrate them.
//
// After Close, expiry is no longer enforced by a timer: State keeps reporting
// the last lifecycle state and Current only hides the session once its
// ExpiresAt has passed. Callers that outlive Close check Closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cancelTimerLocked()
	m.epoch++
	m.mu.Unlock()

	m.audit.Close()
	return m.closeStore()
}

func (m *Manager) now() time.Time {
	return m.clock.Now()
}

/*
====================================
EXPIRY SCHEDULING
====================================
*/

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// armLocked schedules logout at the current session's expiry. The previous
// timer is always cancelled first, so at most one is pending. A deadline that
// has already passed logs out synchronously.
func (m *Manager) armLocked(ctx context.Context) {
	m.cancelTimerLocked()
	if !m.hasSession {
		return
	}

	remaining := m.current.Remaining(m.now())
	if remaining <= 0 {
		m.expireLocked(ctx)
		return
	}

	epoch := m.epoch
	m.timer = m.clock.AfterFunc(remaining, func() {
		m.onTimer(epoch)
	})
}

func (m *Manager) onTimer(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || m.closed {
		m.logger.Debug("stale expiry timer ignored")
		return
	}
	m.timer = nil
	m.expireLocked(context.Background())
}

func (m *Manager) expireLocked(ctx context.Context) {
	m.metrics.Inc(MetricSessionExpired)
	m.logoutLocked(ctx, ReasonExpired)
}

/*
====================================
STORE HELPERS
====================================
*/

// persistLocked writes s under the session key with a ttl matching its
// remaining lifetime.
func (m *Manager) persistLocked(ctx context.Context, s session.Session) error {
	data, err := session.Encode(s)
	if err != nil {
		return err
	}
	ttl := s.Remaining(m.now())
	if ttl < 0 {
		ttl = 0
	}
	return m.store.Set(ctx, m.key, data, ttl)
}

// clearStoreLocked deletes the record. Failures are logged and counted only.
func (m *Manager) clearStoreLocked(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.metrics.Inc(MetricStoreError)
		m.logger.Warn("credential store delete failed", zap.Error(err))
	}
}

/*
====================================
AUDIT
====================================
*/

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, s session.Session, reason string, err error, metadata map[string]string) {
	if m.audit == nil {
		return
	}
	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: m.now(),
		EventType: eventType,
		Identity:  s.Identity.String(),
		Username:  s.Username,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Reason:    reason,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	m.audit.Emit(ctx, event)
}

func sessionFields(s session.Session) []zap.Field {
	return []zap.Field{
		zap.String("identity", s.Identity.String()),
		zap.String("role", string(s.Role)),
		zap.Int64("expires_at", s.ExpiresAt),
	}
}
