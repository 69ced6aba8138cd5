// Package goSession is the client-side session core for the purchase-tracking
// application: it owns the current authenticated identity, persists and
// restores it across restarts, and enforces time-bounded expiry with a
// scheduled logout.
//
// [Manager] methods are safe to call from multiple goroutines after
// construction through [Builder.Build]. Call [Manager.Hydrate] exactly once at
// startup; consumers must not gate role-restricted output until
// [Manager.IsReady] reports true.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (MetricsSnapshot, AuditEvent, Credentials). The record
// codec and stores live in session/, the HTTP clients in identity/ and
// resource/, and shared plumbing under internal/.
//
// # What this package must NOT do
//
//   - Let anything but the Manager write the persisted record.
//   - Surface bookkeeping failures (store, decode, timer races) to callers of
//     Hydrate or Logout.
//   - Log bearer tokens.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
