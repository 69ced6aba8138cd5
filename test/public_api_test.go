//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/dashboard"
	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/apitest"
	"github.com/MrEthical07/goSession/resource"
	"github.com/MrEthical07/goSession/session"
)

func TestPublicAPIPasswordLoginToDashboard(t *testing.T) {
	api, srv := apitest.NewServer(t, apitest.Options{})
	id := api.AddUser("alice", "alice@example.com", "pw", "user")
	today := time.Now().UTC().Format(time.DateOnly)
	api.AddPurchase(id, "coffee", 4, "food", today)

	_, rdb := newRedis(t)
	m := newManager(t, session.NewRedisStore(rdb, "it"), func(c *goSession.Config) {
		c.Identity.BaseURL = srv.URL
	})

	ctx := context.Background()
	s, err := m.LoginWithPassword(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("LoginWithPassword failed: %v", err)
	}
	if s.Identity.String() != id || s.Role != session.RoleUser {
		t.Fatalf("unexpected session %+v", s)
	}

	rc, err := resource.New(resource.Config{
		Config:         apiclient.Config{BaseURL: srv.URL},
		Tokens:         m,
		OnUnauthorized: m.HandleUnauthorized,
	})
	if err != nil {
		t.Fatalf("resource.New failed: %v", err)
	}
	svc, err := dashboard.NewService(dashboard.Config{Source: rc, Sessions: m})
	if err != nil {
		t.Fatalf("dashboard.NewService failed: %v", err)
	}

	report, err := svc.Daily(ctx, 7)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if report.Total != 4 || len(report.Days) != 7 {
		t.Fatalf("unexpected report %+v", report)
	}

	api.Revoke(s.Token)
	if _, err := rc.List(ctx, resource.ListOptions{}); !errors.Is(err, resource.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after revoke, got %v", err)
	}
	if m.State() != goSession.StateUnauthenticated {
		t.Fatalf("expected 401 to end the session, got %s", m.State())
	}
}
