package goSession

import (
	"github.com/MrEthical07/goSession/internal/clock"
	"github.com/MrEthical07/goSession/session"
)

// Clock is the time source the Manager schedules expiry on.
type Clock = clock.Clock

// Credentials is a partial Session handed to Login. Token is required;
// ExpiresAt (unix milliseconds) defaults to now plus Config.Session.Window.
// Empty profile fields may be filled by role enrichment.
type Credentials struct {
	Identity  session.ID
	Username  string
	Email     string
	Role      session.Role
	Token     string
	ExpiresAt int64
}

func (c Credentials) session() session.Session {
	return session.Session{
		Identity:  c.Identity,
		Username:  c.Username,
		Email:     c.Email,
		Role:      c.Role,
		Token:     c.Token,
		ExpiresAt: c.ExpiresAt,
	}
}

// LogoutReason says why a session ended.
type LogoutReason string

const (
	// ReasonUser is an explicit Logout call.
	ReasonUser LogoutReason = "user"
	// ReasonExpired is the expiry timer (or an expiry already past when armed).
	ReasonExpired LogoutReason = "expired"
	// ReasonUnauthorized is a 401 from the Identity Service or Resource API.
	ReasonUnauthorized LogoutReason = "unauthorized"
	// ReasonNotPersisted is a failed store write during login.
	ReasonNotPersisted LogoutReason = "not_persisted"
)
