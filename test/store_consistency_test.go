//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

func backends(t *testing.T) map[string]func(t *testing.T) session.Store {
	return map[string]func(t *testing.T) session.Store{
		"memory": func(*testing.T) session.Store { return session.NewMemoryStore() },
		"file": func(t *testing.T) session.Store {
			s, err := session.NewFileStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFileStore failed: %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T) session.Store {
			s, err := session.OpenSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
			if err != nil {
				t.Fatalf("OpenSQLiteStore failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"redis": func(t *testing.T) session.Store {
			_, rdb := newRedis(t)
			return session.NewRedisStore(rdb, "it")
		},
		"sealed-redis": func(t *testing.T) session.Store {
			_, rdb := newRedis(t)
			return session.NewSealedStore(session.NewRedisStore(rdb, "it"), "integration passphrase")
		},
	}
}

func TestStoreConsistencySessionSurvivesRestart(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			first := newManager(t, store, nil)
			want := login(t, first, "tok-"+name)
			if err := first.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			second := newManager(t, store, nil)
			if second.State() != goSession.StateAuthenticated {
				t.Fatalf("expected authenticated after restart, got %s", second.State())
			}
			got, ok := second.Current()
			if !ok || got != want {
				t.Fatalf("expected %+v after restart, got %+v (ok=%v)", want, got, ok)
			}
		})
	}
}

func TestStoreConsistencyLogoutClearsRecord(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			m := newManager(t, store, nil)
			login(t, m, "tok")
			m.Logout(context.Background())
			m.Logout(context.Background())

			if _, err := store.Get(context.Background(), session.DefaultKey); !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after logout, got %v", err)
			}

			again := newManager(t, store, nil)
			if again.State() != goSession.StateUnauthenticated {
				t.Fatalf("expected unauthenticated, got %s", again.State())
			}
		})
	}
}
