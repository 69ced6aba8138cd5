//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

func TestRedisRecordTTLTracksExpiry(t *testing.T) {
	mr, rdb := newRedis(t)
	store := session.NewRedisStore(rdb, "it")

	m := newManager(t, store, func(c *goSession.Config) {
		c.Session.Window = 10 * time.Minute
	})
	login(t, m, "tok")

	ttl := mr.TTL("it:" + session.DefaultKey)
	if ttl <= 9*time.Minute || ttl > 10*time.Minute {
		t.Fatalf("expected TTL close to 10m, got %s", ttl)
	}

	mr.FastForward(11 * time.Minute)
	if mr.Exists("it:" + session.DefaultKey) {
		t.Fatal("expected record to expire in redis")
	}

	again := newManager(t, store, nil)
	if again.State() != goSession.StateUnauthenticated {
		t.Fatalf("expected unauthenticated once redis dropped the record, got %s", again.State())
	}
}

func TestRedisOutageDegradesLogin(t *testing.T) {
	mr, rdb := newRedis(t)
	store := session.NewRedisStore(rdb, "it")
	m := newManager(t, store, nil)

	mr.SetError("READONLY injected")
	_, err := m.Login(context.Background(), goSession.Credentials{Token: "tok", Role: session.RoleUser})
	if err == nil {
		t.Fatal("expected login to fail while redis rejects writes")
	}
	if m.State() != goSession.StateUnauthenticated {
		t.Fatalf("expected unauthenticated after failed persist, got %s", m.State())
	}

	mr.SetError("")
	if _, err := m.Login(context.Background(), goSession.Credentials{Token: "tok", Role: session.RoleUser}); err != nil {
		t.Fatalf("expected login to recover, got %v", err)
	}
}
