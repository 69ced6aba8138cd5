// Package apiclient is the shared HTTP plumbing behind the identity and
// resource clients: JSON encoding, bearer auth, request IDs, pacing, response
// size caps and status-to-error mapping.
package apiclient
