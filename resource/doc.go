// Package resource is the client for the Resource API: the caller's
// purchases and, for administrators, the user list.
//
// Every request carries the bearer token of the active session, taken from a
// TokenSource (normally the session Manager). Without a session requests fail
// with ErrNoSession before any I/O. A 401 response invokes the configured
// OnUnauthorized hook, so the Manager can log out, and returns ErrUnauthorized.
package resource
