package goSession

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/session"
)

// RefreshProfile re-fetches /auth/me for the active session and replaces its
// profile fields. Token and expiry are unchanged and the expiry timer keeps
// running. Errors leave the session untouched, except a 401, which logs out.
func (m *Manager) RefreshProfile(ctx context.Context) (session.Session, error) {
	if m.identity == nil {
		return session.Session{}, ErrIdentityNotConfigured
	}

	m.mu.Lock()
	if !m.hasSession || m.current.Expired(m.now()) {
		m.mu.Unlock()
		return session.Session{}, ErrNoSession
	}
	s := m.current
	epoch := m.epoch
	m.mu.Unlock()

	user, err := m.identity.Me(ctx, s.Token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return session.Session{}, ErrSessionSuperseded
	}
	if err != nil {
		m.metrics.Inc(MetricProfileRefreshFailure)
		m.emitAudit(ctx, EventProfileRefresh, false, s, "", err, nil)
		if identity.IsUnauthorized(err) {
			m.logoutLocked(ctx, ReasonUnauthorized)
		}
		return session.Session{}, err
	}

	user.ApplyTo(&s)
	if err := m.persistLocked(ctx, s); err != nil {
		m.metrics.Inc(MetricStoreError)
		m.logger.Warn("credential store write failed", zap.Error(err))
		m.logoutLocked(ctx, ReasonNotPersisted)
		m.emitAudit(ctx, EventProfileRefresh, false, s, string(ReasonNotPersisted), err, nil)
		return session.Session{}, fmt.Errorf("%w: %v", ErrSessionNotPersisted, err)
	}
	m.current = s

	m.metrics.Inc(MetricProfileRefresh)
	m.logger.Debug("profile refreshed", sessionFields(s)...)
	m.emitAudit(ctx, EventProfileRefresh, true, s, "", nil, nil)
	return s, nil
}

// HandleUnauthorized logs out after a 401 from the Resource API. It is the
// hook resource clients call.
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx, ReasonUnauthorized)
}
