package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CurrentSchemaVersion is the record version written by Encode.
const CurrentSchemaVersion = 1

// record is the persisted JSON layout. Version 0 means the field was absent
// and is read as version 1.
type record struct {
	V         int    `json:"v"`
	Identity  ID     `json:"identity,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Encode serializes s as a versioned JSON record. Only fully populated
// sessions can be encoded.
func Encode(s Session) ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: token and expiry are required", ErrInvalidSession)
	}
	return json.Marshal(record{
		V:         CurrentSchemaVersion,
		Identity:  s.Identity,
		Username:  s.Username,
		Email:     s.Email,
		Role:      s.Role,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	})
}

// Decode parses a record produced by Encode. Any input that does not describe
// a fully populated Session yields an error wrapping ErrCorrupt.
func Decode(data []byte) (Session, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Session{}, fmt.Errorf("%w: not a JSON object", ErrCorrupt)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.V == 0 {
		rec.V = 1
	}
	if rec.V != CurrentSchemaVersion {
		return Session{}, fmt.Errorf("%w: unsupported session schema version %d", ErrCorrupt, rec.V)
	}

	s := Session{
		Identity:  rec.Identity,
		Username:  rec.Username,
		Email:     rec.Email,
		Role:      rec.Role,
		Token:     rec.Token,
		ExpiresAt: rec.ExpiresAt,
	}
	if !s.Valid() {
		return Session{}, fmt.Errorf("%w: missing token or expiry", ErrCorrupt)
	}
	return s, nil
}
