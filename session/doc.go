// Package session provides the client-side session record and the durable
// credential stores it is persisted in.
//
// # Record format
//
// A [Session] is persisted under a single logical key as one JSON object
// carrying a schema version field ("v"). Records written before the version
// field existed decode as version 1. Anything that does not decode into a
// fully populated Session (token and expiry present) is reported as
// [ErrCorrupt] so callers can discard it.
//
// # Stores
//
// [Store] is a minimal key-value surface. Backends: [MemoryStore] (go-cache),
// [FileStore] (one file per key), [RedisStore], [SQLiteStore]. [SealedStore]
// wraps any backend with authenticated encryption.
//
// # What this package must NOT do
//
//   - Import the root goSession package (no upward imports).
//   - Decide session lifecycle: expiry enforcement and timers belong to the Manager.
//   - Log or otherwise expose bearer tokens.
package session
