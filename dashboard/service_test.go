package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/apitest"
	"github.com/MrEthical07/goSession/resource"
	"github.com/MrEthical07/goSession/session"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	mu sync.Mutex
	s  session.Session
	ok bool
}

func (f *fakeSessions) Current() (session.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s, f.ok
}

func (f *fakeSessions) Token() (string, bool) {
	s, ok := f.Current()
	return s.Token, ok
}

func (f *fakeSessions) set(s session.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s, f.ok = s, s.Token != ""
}

type serviceFixture struct {
	api      *apitest.API
	sessions *fakeSessions
	svc      *Service
	userID   string
}

func newServiceFixture(t *testing.T, shape string, ttl time.Duration) *serviceFixture {
	t.Helper()
	api, srv := apitest.NewServer(t, apitest.Options{
		DailyShape: shape,
		Now:        func() time.Time { return fixedNow },
	})
	f := &serviceFixture{api: api, sessions: &fakeSessions{}}
	f.userID = api.AddUser("alice", "", "pw", "user")
	f.sessions.set(session.Session{
		Identity: session.ID(f.userID),
		Role:     session.RoleUser,
		Token:    api.Token(f.userID),
	})

	client, err := resource.New(resource.Config{
		Config: apiclient.Config{BaseURL: srv.URL},
		Tokens: f.sessions,
	})
	require.NoError(t, err)

	f.svc, err = NewService(Config{
		Source:   client,
		Sessions: f.sessions,
		CacheTTL: ttl,
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	api.AddPurchase(f.userID, "coffee", 3, "food", "2026-10-19")
	api.AddPurchase(f.userID, "lunch", 9, "food", "2026-10-18")
	api.AddPurchase(f.userID, "ancient", 50, "misc", "2025-01-01")
	return f
}

func TestDailyUsesRecognisedReport(t *testing.T) {
	for _, shape := range []string{apitest.DailySeries, apitest.DailyEnvelope, apitest.DailyDateMap, apitest.DailyLabels} {
		t.Run(shape, func(t *testing.T) {
			f := newServiceFixture(t, shape, 0)

			rep, err := f.svc.Daily(context.Background(), 3)
			require.NoError(t, err)

			assert.Equal(t, OriginReport, rep.Origin)
			assert.Equal(t, []DailyTotal{
				{Date: "2026-10-17", Total: 0},
				{Date: "2026-10-18", Total: 9},
				{Date: "2026-10-19", Total: 3},
			}, rep.Days)
			assert.Equal(t, 12.0, rep.Total)
		})
	}
}

func TestDailyFallsBackToPurchases(t *testing.T) {
	for _, shape := range []string{apitest.DailyUnknown, apitest.DailyMissing} {
		t.Run(shape, func(t *testing.T) {
			f := newServiceFixture(t, shape, 0)

			rep, err := f.svc.Daily(context.Background(), 2)
			require.NoError(t, err)

			assert.Equal(t, OriginPurchases, rep.Origin)
			assert.Equal(t, []DailyTotal{
				{Date: "2026-10-18", Total: 9},
				{Date: "2026-10-19", Total: 3},
			}, rep.Days)
		})
	}
}

func TestDailyCachesPerIdentityAndDays(t *testing.T) {
	f := newServiceFixture(t, apitest.DailySeries, time.Minute)
	ctx := context.Background()

	first, err := f.svc.Daily(ctx, 3)
	require.NoError(t, err)
	f.api.AddPurchase(f.userID, "late", 100, "food", "2026-10-19")
	second, err := f.svc.Daily(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.api.Calls("GET /reports/daily"))

	_, err = f.svc.Daily(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.Calls("GET /reports/daily"))

	f.svc.Invalidate()
	third, err := f.svc.Daily(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 112.0, third.Total)
}

func TestDailyWithoutSession(t *testing.T) {
	f := newServiceFixture(t, apitest.DailySeries, 0)
	f.sessions.set(session.Session{})

	_, err := f.svc.Daily(context.Background(), 7)
	require.ErrorIs(t, err, resource.ErrNoSession)
}

func TestDailyUnauthorizedIsFatal(t *testing.T) {
	f := newServiceFixture(t, apitest.DailySeries, 0)
	s, _ := f.sessions.Current()
	f.api.Revoke(s.Token)

	_, err := f.svc.Daily(context.Background(), 7)
	require.ErrorIs(t, err, resource.ErrUnauthorized)
}

func TestCategoriesAndRoles(t *testing.T) {
	f := newServiceFixture(t, apitest.DailySeries, 0)
	ctx := context.Background()

	cats, err := f.svc.Categories(ctx, resource.ListOptions{From: "2026-10-01"})
	require.NoError(t, err)
	assert.Equal(t, []CategoryTotal{{Category: "food", Total: 12, Count: 2}}, cats)

	_, err = f.svc.Roles(ctx)
	require.ErrorIs(t, err, ErrAdminOnly)

	adminID := f.api.AddUser("root", "", "pw", "admin")
	f.sessions.set(session.Session{Identity: session.ID(adminID), Role: session.RoleAdmin, Token: f.api.Token(adminID)})
	roles, err := f.svc.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RoleCount{
		{Role: session.RoleAdmin, Count: 1},
		{Role: session.RoleUser, Count: 1},
	}, roles)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)
}
