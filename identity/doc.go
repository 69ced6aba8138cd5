// Package identity is the HTTP client for the Identity Service: password
// login, registration, and the "who am I" profile endpoint.
//
// User objects are decoded leniently: the identifier is read from the first
// present field named in Config.IDFields, and /auth/me responses are
// resolved by named parsers (envelope, then bare) rather than guessed.
package identity
