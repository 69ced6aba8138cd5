package goSession

import "errors"

var (
	// ErrNotReady is returned by Login before Hydrate has resolved.
	ErrNotReady = errors.New("session manager not ready")
	// ErrTokenRequired is returned by Login when the credentials carry no token.
	ErrTokenRequired = errors.New("token required")
	// ErrSessionSuperseded is returned when a logout or newer login happened
	// while this operation waited on the Identity Service.
	ErrSessionSuperseded = errors.New("session superseded")
	// ErrSessionNotPersisted is returned when the record could not be written.
	// The manager is left Unauthenticated.
	ErrSessionNotPersisted = errors.New("session not persisted")
	// ErrSessionExpired is returned by Login when the supplied expiry is already past.
	ErrSessionExpired = errors.New("session already expired")
	// ErrNoSession is returned by operations that need an active session.
	ErrNoSession = errors.New("no active session")
	// ErrIdentityNotConfigured is returned by operations that need an Identity Service client.
	ErrIdentityNotConfigured = errors.New("identity service not configured")
	// ErrLoginRateLimited is returned by LoginWithPassword after repeated failures.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrManagerClosed is returned by Login after Close.
	ErrManagerClosed = errors.New("session manager closed")
)
