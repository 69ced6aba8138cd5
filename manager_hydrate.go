package goSession

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/session"
)

// Hydrate restores the persisted session. It runs once; later calls return
// immediately. Hydrate never fails: a missing, corrupt, expired or unreadable
// record leaves the Manager Unauthenticated (deleting the record where one
// existed). Ready is closed when Hydrate returns.
func (m *Manager) Hydrate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUninitialized || m.closed {
		return
	}
	m.state = StateHydrating
	defer close(m.ready)

	data, err := m.store.Get(ctx, m.key)
	switch {
	case errors.Is(err, session.ErrNotFound):
		m.resolveUnauthenticatedLocked()
		m.metrics.Inc(MetricHydrateEmpty)
		m.emitAudit(ctx, EventHydrate, true, session.Session{}, "empty", nil, nil)
		return

	case errors.Is(err, session.ErrCorrupt):
		m.discardLocked(ctx, MetricHydrateCorrupt, "corrupt", err)
		return

	case err != nil:
		m.metrics.Inc(MetricStoreError)
		m.logger.Warn("credential store read failed; starting unauthenticated", zap.Error(err))
		m.clearStoreLocked(ctx)
		m.resolveUnauthenticatedLocked()
		m.emitAudit(ctx, EventHydrate, false, session.Session{}, "store_error", err, nil)
		return
	}

	s, err := session.Decode(data)
	if err != nil {
		m.discardLocked(ctx, MetricHydrateCorrupt, "corrupt", err)
		return
	}
	if s.Expired(m.now()) {
		m.discardLocked(ctx, MetricHydrateExpired, "expired", nil)
		return
	}

	m.current = s
	m.hasSession = true
	m.state = StateAuthenticated
	m.epoch++
	m.armLocked(ctx)

	m.metrics.Inc(MetricHydrateRestored)
	m.logger.Info("session restored", sessionFields(s)...)
	m.emitAudit(ctx, EventHydrate, true, s, "restored", nil, nil)
}

func (m *Manager) resolveUnauthenticatedLocked() {
	m.current = session.Session{}
	m.hasSession = false
	m.state = StateUnauthenticated
	m.epoch++
}

func (m *Manager) discardLocked(ctx context.Context, id MetricID, reason string, cause error) {
	m.clearStoreLocked(ctx)
	m.resolveUnauthenticatedLocked()
	m.metrics.Inc(id)

	fields := []zap.Field{zap.String("reason", reason)}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	m.logger.Info("persisted session discarded", fields...)
	m.emitAudit(ctx, EventHydrate, true, session.Session{}, reason, cause, nil)
}
