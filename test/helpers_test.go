//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// newManager builds and hydrates a Manager over store. Extra config tweaks
// run before Build.
func newManager(t *testing.T, store session.Store, tweak func(*goSession.Config)) *goSession.Manager {
	t.Helper()

	cfg := goSession.DefaultConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	m, err := goSession.New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.Hydrate(ctx)
	return m
}

func login(t *testing.T, m *goSession.Manager, token string) session.Session {
	t.Helper()

	s, err := m.Login(context.Background(), goSession.Credentials{
		Identity: "u1",
		Username: "alice",
		Role:     session.RoleUser,
		Token:    token,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return s
}
