package session

import (
	"testing"
)

// FuzzSessionDecode exercises the record decoder with arbitrary inputs.
// Decode must never panic, and anything it accepts must round-trip.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(Session{
		Identity:  "42",
		Username:  "ana",
		Email:     "ana@example.com",
		Role:      RoleAdmin,
		Token:     "tok",
		ExpiresAt: 1700003600000,
	})
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte("{"))
	f.Add([]byte("null"))
	f.Add([]byte(`{"token":"t2","expiresAt":500}`))
	f.Add([]byte(`{"v":2,"token":"t","expiresAt":1}`))
	f.Add([]byte(`{"identity":7,"token":"t","expiresAt":1}`))
	f.Add([]byte(`{"identity":{},"token":"t","expiresAt":1}`))
	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if !s.Valid() {
			t.Fatalf("decoded invalid session from %q", data)
		}
		again, err := Encode(s)
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		back, err := Decode(again)
		if err != nil || back != s {
			t.Fatalf("round trip mismatch: %+v vs %+v (%v)", s, back, err)
		}
	})
}
