// Package rate provides the client-side throttles used by the session
// library: a token-bucket pacer for outbound HTTP calls and a fixed-window
// failed-login counter.
//
// # Window semantics
//
// Failed logins use fixed windows: the first failure for a username opens a
// window of LoginCooldown; once MaxLoginAttempts failures accumulate inside
// it, further attempts are rejected until the window closes. A successful login resets
// the counter.
//
// # What this package must NOT do
//
//   - Decide session state. Callers map ErrRateLimited to their own errors.
//   - Be imported outside this module.
package rate
