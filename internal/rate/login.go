package rate

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// LoginConfig tunes LoginAttempts.
type LoginConfig struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// LoginAttempts counts failed logins per username in fixed windows.
type LoginAttempts struct {
	mu       sync.Mutex
	counters *cache.Cache
	config   LoginConfig
}

// NewLoginAttempts returns a counter. MaxLoginAttempts <= 0 disables it.
func NewLoginAttempts(cfg LoginConfig) *LoginAttempts {
	if cfg.LoginCooldown <= 0 {
		cfg.LoginCooldown = time.Minute
	}
	return &LoginAttempts{
		counters: cache.New(cfg.LoginCooldown, 2*cfg.LoginCooldown),
		config:   cfg,
	}
}

func loginKey(username string) string {
	return "al:" + strings.ToLower(strings.TrimSpace(username))
}

// Check returns ErrRateLimited when username exhausted its window budget.
func (l *LoginAttempts) Check(username string) error {
	if l == nil || l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if l.Count(username) >= l.config.MaxLoginAttempts {
		return ErrRateLimited
	}
	return nil
}

// Fail records a failed attempt. The window TTL is set on the first hit only.
func (l *LoginAttempts) Fail(username string) {
	if l == nil || l.config.MaxLoginAttempts <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := loginKey(username)
	if _, err := l.counters.IncrementInt(key, 1); err != nil {
		l.counters.Set(key, 1, l.config.LoginCooldown)
	}
}

// Reset clears the counter after a successful login.
func (l *LoginAttempts) Reset(username string) {
	if l == nil {
		return
	}
	l.counters.Delete(loginKey(username))
}

// Count returns the failures in the current window. Unknown usernames read as zero.
func (l *LoginAttempts) Count(username string) int {
	if l == nil {
		return 0
	}
	v, ok := l.counters.Get(loginKey(username))
	if !ok {
		return 0
	}
	n, _ := v.(int)
	return n
}
