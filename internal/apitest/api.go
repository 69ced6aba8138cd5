package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/jwt"
)

// Shape names accepted by Options.
const (
	MeEnvelope = "envelope"
	MeBare     = "bare"

	ListArray     = "array"
	ListData      = "data"
	ListPurchases = "purchases"

	DailySeries   = "series"
	DailyEnvelope = "envelope"
	DailyDateMap  = "datemap"
	DailyLabels   = "labels"
	DailyUnknown  = "unknown"
	DailyMissing  = "missing"
)

// Options tunes the fake.
type Options struct {
	// Tokens signs and verifies bearer tokens. Defaults to HS256 with a 1h TTL.
	Tokens *jwt.Manager
	// IDField is the user identifier key in responses (id, _id or userId).
	IDField string
	// NumericIDs sends identifiers as JSON numbers.
	NumericIDs bool

	MeShape    string
	ListShape  string
	DailyShape string

	// RegisterLogsIn makes /auth/register return a token.
	RegisterLogsIn bool

	Now    func() time.Time
	Logger *zap.Logger
}

// User is an account known to the fake.
type User struct {
	ID       string
	Username string
	Email    string
	Password string
	Role     string
}

// Purchase is a stored purchase.
type Purchase struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	Item     string  `json:"item"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
	Date     string  `json:"date"`
}

// API is the fake server state. All methods are safe for concurrent use.
type API struct {
	opts   Options
	engine *gin.Engine
	logger *zap.Logger

	mu        sync.Mutex
	users     map[string]*User
	purchases map[string]*Purchase
	nextID    int
	calls     map[string]int
	meGate    <-chan struct{}
	meStatus  int
	revoked   map[string]bool
}

// New builds a fake with no users.
func New(opts Options) *API {
	if opts.Tokens == nil {
		tokens, err := jwt.NewManager(jwt.Config{
			TTL:           time.Hour,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte("apitest-signing-key"),
			Issuer:        "apitest",
		})
		if err != nil {
			panic(err)
		}
		opts.Tokens = tokens
	}
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	if opts.MeShape == "" {
		opts.MeShape = MeEnvelope
	}
	if opts.ListShape == "" {
		opts.ListShape = ListArray
	}
	if opts.DailyShape == "" {
		opts.DailyShape = DailySeries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Tokens.SetNow(opts.Now)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	a := &API{
		opts:      opts,
		logger:    logger,
		users:     make(map[string]*User),
		purchases: make(map[string]*Purchase),
		nextID:    1,
		calls:     make(map[string]int),
		revoked:   make(map[string]bool),
	}
	a.engine = a.routes()
	return a
}

// NewServer starts a fake behind httptest and closes it with the test.
func NewServer(t testing.TB, opts Options) (*API, *httptest.Server) {
	t.Helper()
	a := New(opts)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return a, srv
}

// Handler returns the gin engine.
func (a *API) Handler() http.Handler { return a.engine }

// AddUser registers an account and returns its identifier.
func (a *API) AddUser(username, email, password, role string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addUserLocked(username, email, password, role).ID
}

func (a *API) addUserLocked(username, email, password, role string) *User {
	if role == "" {
		role = "user"
	}
	u := &User{
		ID:       strconv.Itoa(a.nextID),
		Username: username,
		Email:    email,
		Password: password,
		Role:     role,
	}
	a.nextID++
	a.users[u.ID] = u
	return u
}

// Token mints a valid bearer token for userID.
func (a *API) Token(userID string) string {
	a.mu.Lock()
	u := a.users[userID]
	a.mu.Unlock()
	if u == nil {
		return ""
	}
	tok, err := a.opts.Tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		panic(err)
	}
	return tok
}

// Revoke makes every subsequent request with token fail with 401.
func (a *API) Revoke(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[token] = true
}

// SetRole changes a user's role server-side.
func (a *API) SetRole(userID, role string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u := a.users[userID]; u != nil {
		u.Role = role
	}
}

// HoldMe blocks /auth/me until gate is closed. Pass nil to release.
func (a *API) HoldMe(gate <-chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meGate = gate
}

// FailMe makes /auth/me answer with status. Zero restores normal behaviour.
func (a *API) FailMe(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meStatus = status
}

// SetDailyShape switches the /reports/daily response shape.
func (a *API) SetDailyShape(shape string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opts.DailyShape = shape
}

// AddPurchase stores a purchase for userID and returns its identifier.
func (a *API) AddPurchase(userID, item string, amount float64, category, date string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := &Purchase{
		ID:       "p" + strconv.Itoa(a.nextID),
		UserID:   userID,
		Item:     item,
		Amount:   amount,
		Category: category,
		Date:     date,
	}
	a.nextID++
	a.purchases[p.ID] = p
	return p.ID
}

// Purchases returns userID's purchases ordered by date then id.
func (a *API) Purchases(userID string) []Purchase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.purchasesLocked(userID)
}

func (a *API) purchasesLocked(userID string) []Purchase {
	out := make([]Purchase, 0)
	for _, p := range a.purchases {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Calls returns how many requests hit route (e.g. "GET /auth/me").
func (a *API) Calls(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[route]
}

// Users returns a snapshot of all accounts.
func (a *API) Users() []User {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]User, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
