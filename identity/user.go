package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/session"
)

// DefaultIDFields lists identifier aliases in lookup order.
var DefaultIDFields = []string{"id", "_id", "userId"}

// DecodeUser reads one user object as returned by any endpoint of the
// service. An empty idFields means DefaultIDFields.
func DecodeUser(raw json.RawMessage, idFields []string) (User, error) {
	if len(idFields) == 0 {
		idFields = DefaultIDFields
	}
	return decodeUser(raw, idFields)
}

// decodeUser reads a user object. The identifier comes from the first
// non-empty field in idFields; an object without one yields an empty ID.
func decodeUser(raw json.RawMessage, idFields []string) (User, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return User{}, fmt.Errorf("%w: user is not an object", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var u User
	for _, name := range idFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		var id session.ID
		if err := json.Unmarshal(v, &id); err != nil {
			return User{}, fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, name, err)
		}
		if id != "" {
			u.ID = id
			break
		}
	}
	u.Username = stringField(fields, "username")
	u.Email = stringField(fields, "email")
	u.Role = session.Role(strings.ToLower(stringField(fields, "role")))
	return u, nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// meParser extracts a user from one known /auth/me response shape.
type meParser struct {
	name  string
	parse func(body []byte, idFields []string) (User, bool)
}

// meParsers are tried in order; the first match wins.
var meParsers = []meParser{
	{name: "envelope", parse: parseEnvelope},
	{name: "bare", parse: parseBare},
}

// {"user": {...}}
func parseEnvelope(body []byte, idFields []string) (User, bool) {
	var env struct {
		User json.RawMessage `json:"user"`
	}
	if json.Unmarshal(body, &env) != nil || len(env.User) == 0 {
		return User{}, false
	}
	u, err := decodeUser(env.User, idFields)
	return u, err == nil && !u.empty()
}

// {"id": ..., "username": ...}
func parseBare(body []byte, idFields []string) (User, bool) {
	u, err := decodeUser(body, idFields)
	return u, err == nil && !u.empty()
}

// parseMe resolves a /auth/me body and reports which parser matched.
func parseMe(body []byte, idFields []string) (User, string, error) {
	for _, p := range meParsers {
		if u, ok := p.parse(body, idFields); ok {
			return u, p.name, nil
		}
	}
	return User{}, "", fmt.Errorf("%w: unrecognised profile shape", ErrMalformedResponse)
}
