package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Login replaces the active session with creds and arms its expiry.
//
// ExpiresAt defaults to now plus Config.Session.Window. When Role is empty
// and enrichment is enabled, one best-effort /auth/me call fills the profile
// fields the caller left empty; its failure is ignored. If Logout or another
// Login ran while that call was in flight, the result is discarded and
// ErrSessionSuperseded is returned.
//
// Login always replaces: credentials that are already expired end the
// current session with reason expired and return ErrSessionExpired. A failed
// store write leaves the Manager Unauthenticated and returns an error
// wrapping ErrSessionNotPersisted.
func (m *Manager) Login(ctx context.Context, creds Credentials) (session.Session, error) {
	if strings.TrimSpace(creds.Token) == "" {
		return session.Session{}, ErrTokenRequired
	}

	// -------- PREPARE --------
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return session.Session{}, ErrManagerClosed
	}
	if !m.state.Ready() {
		m.mu.Unlock()
		return session.Session{}, ErrNotReady
	}
	m.intent++
	intent := m.intent
	now := m.now()
	m.mu.Unlock()

	s := creds.session()
	if s.ExpiresAt == 0 {
		s.ExpiresAt = m.defaultExpiry(s.Token, now)
	}
	if s.Expired(now) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.closed && m.intent == intent {
			m.logoutLocked(ctx, ReasonExpired)
		}
		return session.Session{}, ErrSessionExpired
	}

	// -------- ENRICH --------
	if s.Role == session.RoleNone {
		m.enrich(ctx, &s)
	}
	if s.Role == session.RoleNone && m.config.Session.RoleFromTokenClaims {
		if claims, err := jwt.Peek(s.Token); err == nil && claims.Role != "" {
			s.Role = session.Role(strings.ToLower(claims.Role))
		}
	}

	// -------- COMMIT --------
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return session.Session{}, ErrManagerClosed
	}
	if m.intent != intent {
		m.metrics.Inc(MetricLoginSuperseded)
		m.logger.Debug("login superseded while enriching")
		return session.Session{}, ErrSessionSuperseded
	}
	return m.commitLocked(ctx, s, EventLogin)
}

func (m *Manager) defaultExpiry(token string, now time.Time) int64 {
	exp := now.Add(m.config.Session.Window).UnixMilli()
	if !m.config.Session.ExpiryFromToken {
		return exp
	}
	claims, err := jwt.Peek(token)
	if err != nil {
		return exp
	}
	if tokenExp, ok := claims.ExpiresAtMillis(); ok && tokenExp < exp {
		return tokenExp
	}
	return exp
}

// enrich fills empty profile fields of s from /auth/me. It runs without the
// lock and never fails.
func (m *Manager) enrich(ctx context.Context, s *session.Session) {
	if m.identity == nil || !m.config.Session.EnrichRole {
		return
	}

	enrichCtx, cancel := context.WithTimeout(ctx, m.config.Session.EnrichTimeout)
	defer cancel()

	user, err := m.identity.Me(enrichCtx, s.Token)
	if err != nil {
		m.metrics.Inc(MetricEnrichFailure)
		m.logger.Debug("role enrichment failed", zap.Error(err))
		m.emitAudit(ctx, EventEnrich, false, *s, "", err, nil)
		return
	}

	if s.Identity == "" {
		s.Identity = user.ID
	}
	if s.Username == "" {
		s.Username = user.Username
	}
	if s.Email == "" {
		s.Email = user.Email
	}
	if s.Role == session.RoleNone {
		s.Role = user.Role
	}
	m.metrics.Inc(MetricEnrichSuccess)
	m.emitAudit(ctx, EventEnrich, true, *s, "", nil, nil)
}

// commitLocked persists s, makes it current and re-arms expiry.
func (m *Manager) commitLocked(ctx context.Context, s session.Session, eventType string) (session.Session, error) {
	if s.Expired(m.now()) {
		m.logoutLocked(ctx, ReasonExpired)
		return session.Session{}, ErrSessionExpired
	}

	if err := m.persistLocked(ctx, s); err != nil {
		m.metrics.Inc(MetricStoreError)
		m.logger.Warn("credential store write failed", zap.Error(err))
		m.logoutLocked(ctx, ReasonNotPersisted)
		m.emitAudit(ctx, eventType, false, s, string(ReasonNotPersisted), err, nil)
		return session.Session{}, fmt.Errorf("%w: %v", ErrSessionNotPersisted, err)
	}

	m.current = s
	m.hasSession = true
	m.state = StateAuthenticated
	m.epoch++
	m.armLocked(ctx)

	m.metrics.Inc(MetricLoginSuccess)
	m.logger.Info("session started", sessionFields(s)...)
	m.emitAudit(ctx, eventType, true, s, "", nil, nil)
	return s, nil
}

// LoginWithPassword authenticates against POST /auth/login and starts a
// session from the returned token and user. Repeated failures for the same
// username are refused locally with ErrLoginRateLimited until the cooldown
// passes.
func (m *Manager) LoginWithPassword(ctx context.Context, username, password string) (session.Session, error) {
	if m.identity == nil {
		return session.Session{}, ErrIdentityNotConfigured
	}

	if err := m.attempts.Check(username); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			m.metrics.Inc(MetricLoginRateLimited)
			m.emitAudit(ctx, EventLoginPassword, false, session.Session{Username: username}, "rate_limited", err, nil)
			return session.Session{}, ErrLoginRateLimited
		}
		return session.Session{}, err
	}

	res, err := m.identity.Login(ctx, username, password)
	if err != nil {
		if identity.IsUnauthorized(err) {
			m.attempts.Fail(username)
		}
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, EventLoginPassword, false, session.Session{Username: username}, "", err, nil)
		return session.Session{}, err
	}
	m.attempts.Reset(username)

	return m.Login(ctx, credentialsFor(res.User, res.Token))
}

// Register creates an account with POST /auth/register. When the response
// carries a token the session starts from it; otherwise Register logs in with
// the submitted username and password.
func (m *Manager) Register(ctx context.Context, in identity.RegisterInput) (session.Session, error) {
	if m.identity == nil {
		return session.Session{}, ErrIdentityNotConfigured
	}

	res, err := m.identity.Register(ctx, in)
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		m.emitAudit(ctx, EventRegister, false, session.Session{Username: in.Username}, "", err, nil)
		return session.Session{}, err
	}
	m.metrics.Inc(MetricRegisterSuccess)
	m.emitAudit(ctx, EventRegister, true, session.Session{Username: in.Username}, "", nil, map[string]string{
		"logged_in": fmt.Sprint(res.Token != ""),
	})

	if res.Token == "" {
		return m.LoginWithPassword(ctx, in.Username, in.Password)
	}

	creds := Credentials{Token: res.Token}
	if res.User != nil {
		creds = credentialsFor(*res.User, res.Token)
	}
	return m.Login(ctx, creds)
}

func credentialsFor(u identity.User, token string) Credentials {
	return Credentials{
		Identity: u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Token:    token,
	}
}
