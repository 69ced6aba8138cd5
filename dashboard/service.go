package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/resource"
	"github.com/MrEthical07/goSession/session"
)

// Source is the subset of resource.Client the dashboard reads from.
type Source interface {
	DailyReport(ctx context.Context, days int) ([]byte, error)
	List(ctx context.Context, opts resource.ListOptions) ([]resource.Purchase, error)
	ListUsers(ctx context.Context) ([]identity.User, error)
}

// Sessions reports the active session; the cache is partitioned by its
// identity.
type Sessions interface {
	Current() (session.Session, bool)
}

// Config configures a Service.
type Config struct {
	Source   Source
	Sessions Sessions
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Origin says where a DailyReport's numbers came from.
type Origin string

const (
	// OriginReport means the server report was recognised.
	OriginReport Origin = "report"
	// OriginPurchases means totals were aggregated from the purchase list.
	OriginPurchases Origin = "purchases"
)

// DailyReport is a filled daily window ready to chart.
type DailyReport struct {
	Days   []DailyTotal `json:"days"`
	Total  float64      `json:"total"`
	Origin Origin       `json:"origin"`
	// Shape is set when Origin is OriginReport.
	Shape Shape `json:"shape,omitempty"`
}

// Service assembles dashboard data.
type Service struct {
	source   Source
	sessions Sessions
	cache    *cache.Cache
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewService returns a Service for cfg.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil || cfg.Sessions == nil {
		return nil, errors.New("dashboard: source and sessions are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source:   cfg.Source,
		sessions: cfg.Sessions,
		ttl:      cfg.CacheTTL,
		now:      now,
		logger:   logger.Named("dashboard"),
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s, nil
}

// Daily returns spend per day over the last days days. The server report and
// the purchase list are fetched concurrently; the report wins when its shape
// is recognised. Results are cached per identity and window length.
func (s *Service) Daily(ctx context.Context, days int) (DailyReport, error) {
	days = clampDays(days)
	sess, ok := s.sessions.Current()
	if !ok {
		return DailyReport{}, resource.ErrNoSession
	}

	key := fmt.Sprintf("daily:%s:%d", cacheOwner(sess), days)
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			return v.(DailyReport), nil
		}
	}

	var (
		reportBody []byte
		reportErr  error
		purchases  []resource.Purchase
		listErr    error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reportBody, reportErr = s.source.DailyReport(gctx, days)
		return fatal(reportErr)
	})
	g.Go(func() error {
		purchases, listErr = s.source.List(gctx, resource.ListOptions{})
		return fatal(listErr)
	})
	if err := g.Wait(); err != nil {
		return DailyReport{}, err
	}

	today := s.now()
	var out DailyReport
	switch shape, totals, err := s.parseReport(reportBody, reportErr); {
	case err == nil:
		out = DailyReport{Days: Normalize(totals, days, today), Origin: OriginReport, Shape: shape}
	case listErr == nil:
		s.logger.Debug("daily report unusable; aggregating purchases", zap.Error(err))
		out = DailyReport{Days: DailyTotals(purchases, days, today), Origin: OriginPurchases}
	default:
		return DailyReport{}, errors.Join(err, listErr)
	}
	for _, d := range out.Days {
		out.Total += d.Total
	}

	if s.cache != nil {
		s.cache.Set(key, out, cache.DefaultExpiration)
	}
	return out, nil
}

func (s *Service) parseReport(body []byte, fetchErr error) (Shape, []DailyTotal, error) {
	if fetchErr != nil {
		return "", nil, fetchErr
	}
	return ParseDailyTotals(body)
}

// Categories returns spend by category for purchases matching opts.
func (s *Service) Categories(ctx context.Context, opts resource.ListOptions) ([]CategoryTotal, error) {
	purchases, err := s.source.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return ByCategory(purchases), nil
}

// Roles returns accounts per role. Only administrators may call it.
func (s *Service) Roles(ctx context.Context) ([]RoleCount, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return nil, resource.ErrNoSession
	}
	if !sess.Role.IsAdmin() {
		return nil, ErrAdminOnly
	}
	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return RoleCounts(users), nil
}

// Invalidate drops every cached result, e.g. after a purchase changes.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// ErrAdminOnly is returned by Roles for non-admin sessions.
var ErrAdminOnly = errors.New("dashboard: admin role required")

// fatal keeps session-level failures; anything else is a per-source problem
// Daily can fall back from.
func fatal(err error) error {
	if errors.Is(err, resource.ErrUnauthorized) || errors.Is(err, resource.ErrNoSession) {
		return err
	}
	return nil
}

// cacheOwner names the account a cached result belongs to. Profiles may lack
// an identifier, so it falls back to the username and then a token digest.
func cacheOwner(sess session.Session) string {
	if sess.Identity != "" {
		return "id:" + sess.Identity.String()
	}
	if sess.Username != "" {
		return "user:" + sess.Username
	}
	sum := sha256.Sum256([]byte(sess.Token))
	return "tok:" + hex.EncodeToString(sum[:8])
}
