package goSession

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/session"
)

// Logout ends the active session: the record is deleted, memory cleared and
// the expiry timer cancelled. It is idempotent and never fails; store errors
// are logged and counted.
//
// Logout also invalidates any Login still waiting on enrichment.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx, ReasonUser)
}

func (m *Manager) logoutLocked(ctx context.Context, reason LogoutReason) {
	m.intent++
	m.cancelTimerLocked()

	prev, had := m.current, m.hasSession

	// A logout before hydrate has no record to clear and must not make the
	// Manager look ready.
	if m.state.Ready() {
		m.clearStoreLocked(ctx)
	}
	m.current = session.Session{}
	m.hasSession = false
	if m.state == StateAuthenticated {
		m.state = StateUnauthenticated
	}
	m.epoch++

	if !had {
		return
	}
	m.metrics.Inc(MetricLogout)
	m.logger.Info("session ended",
		zap.String("reason", string(reason)),
		zap.String("identity", prev.Identity.String()),
	)
	m.emitAudit(ctx, EventLogout, true, prev, string(reason), nil, nil)
}
