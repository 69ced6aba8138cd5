// Package jwt reads claims from bearer tokens handed out by the Identity
// Service and, for local tooling, issues and verifies such tokens.
//
// [Peek] never verifies signatures. The client only uses it to learn an
// expiry or role hint; authorization decisions stay with the server.
package jwt
