// Package internal groups the helpers that are private to goSession.
//
// # Sub-packages
//
//   - apiclient: JSON-over-HTTP client shared by the identity and resource clients
//   - apitest: in-process fake of the Identity Service and Resource API (gin)
//   - clock: real and fake clocks for expiry scheduling
//   - logging: zap logger construction for the binaries
//   - rate: outbound request pacing and failed-login throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
