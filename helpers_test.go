package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/apitest"
	"github.com/MrEthical07/goSession/internal/clock"
	"github.com/MrEthical07/goSession/session"
)

var errInjected = errors.New("injected store failure")

// flakyStore wraps a MemoryStore and fails selected operations on demand.
type flakyStore struct {
	*session.MemoryStore

	mu       sync.Mutex
	failGet  error
	failSet  error
	failDel  error
	setCalls int
	lastTTL  time.Duration
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: session.NewMemoryStore()}
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	err := s.failGet
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.setCalls++
	s.lastTTL = ttl
	err := s.failSet
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	err := s.failDel
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, key)
}

func (s *flakyStore) setFailures(get, set, del error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet, s.failSet, s.failDel = get, set, del
}

type testManagerOptions struct {
	store    session.Store
	clock    *clock.Fake
	identity *identity.Client
	sink     AuditSink
	mutate   func(*Config)
}

// newTestManager builds a Manager on a fake clock at 1000ms and a memory
// store unless overridden. Hydrate is not called.
func newTestManager(t *testing.T, opts testManagerOptions) (*Manager, *clock.Fake, session.Store) {
	t.Helper()

	if opts.clock == nil {
		opts.clock = clock.NewFakeMillis(1000)
	}
	if opts.store == nil {
		opts.store = session.NewMemoryStore()
	}

	cfg := DefaultConfig()
	if opts.sink != nil {
		cfg.Audit.Enabled = true
		cfg.Audit.DropIfFull = false
	}
	if opts.mutate != nil {
		opts.mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithStore(opts.store).
		WithClock(opts.clock).
		WithAuditSink(opts.sink)
	if opts.identity != nil {
		b.WithIdentityClient(opts.identity)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, opts.clock, opts.store
}

func newHydratedManager(t *testing.T, opts testManagerOptions) (*Manager, *clock.Fake, session.Store) {
	t.Helper()
	m, clk, store := newTestManager(t, opts)
	m.Hydrate(context.Background())
	return m, clk, store
}

func newTestIdentity(t *testing.T, opts apitest.Options) (*apitest.API, *identity.Client) {
	t.Helper()
	api, srv := apitest.NewServer(t, opts)
	client, err := identity.New(identity.Config{
		Config: apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("identity client: %v", err)
	}
	return api, client
}

func putRecord(t *testing.T, store session.Store, s session.Session) {
	t.Helper()
	data, err := session.Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := store.Set(context.Background(), session.DefaultKey, data, 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func recordExists(t *testing.T, store session.Store) bool {
	t.Helper()
	_, err := store.Get(context.Background(), session.DefaultKey)
	if errors.Is(err, session.ErrNotFound) {
		return false
	}
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	return true
}
