package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Role is the authorization role reported by the Identity Service.
type Role string

const (
	// RoleNone means the role is not known yet.
	RoleNone Role = ""
	// RoleUser is a regular account.
	RoleUser Role = "user"
	// RoleAdmin can manage other users.
	RoleAdmin Role = "admin"
)

// IsAdmin reports whether r grants access to the administrative panel.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// ID is an opaque user identifier. The Identity Service may send it as a JSON
// string or number; it is always persisted as a string.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("identity must be a string or number")
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// Session is the authenticated identity and bearer credential held by the
// client. A Session is either the zero value (absent) or fully populated.
type Session struct {
	Identity  ID     `json:"identity,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` // milliseconds since epoch
}

// Valid reports whether s carries both a token and an expiry.
func (s Session) Valid() bool {
	return s.Token != "" && s.ExpiresAt > 0
}

// Expired reports whether s is past its deadline at now. A deadline equal to
// now counts as expired.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.UnixMilli()
}

// Deadline returns ExpiresAt as a time.Time.
func (s Session) Deadline() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// Remaining returns the time left until expiry at now (negative once expired).
func (s Session) Remaining(now time.Time) time.Duration {
	return time.Duration(s.ExpiresAt-now.UnixMilli()) * time.Millisecond
}
