package goSession

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	// LintInfo notes a setting worth knowing about.
	LintInfo LintSeverity = iota
	// LintWarn flags a setting that weakens the deployment.
	LintWarn
	// LintHigh flags a setting that is almost certainly a mistake.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one advisory finding. Unlike Validate, Lint never rejects a
// configuration.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, len(hits))
	for i, w := range hits {
		parts[i] = fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

const (
	lintLongWindow        = 24 * time.Hour
	lintMinPassphraseSize = 12
)

// Lint reports risky but valid settings.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	// Session
	if c.Session.Window > lintLongWindow {
		add("window_long", LintWarn, "sessions outlive a day; tokens stay usable on a lost device")
	}
	if c.Session.EnrichRole && c.Session.EnrichTimeout >= c.Session.Window {
		add("enrich_timeout_exceeds_window", LintHigh, "enrichment may outlast the session it enriches")
	}
	if c.Session.RoleFromTokenClaims {
		add("role_from_unverified_claims", LintWarn, "role is read from an unverified token claim")
	}

	// Identity
	if c.Identity.BaseURL != "" {
		if u, err := url.Parse(c.Identity.BaseURL); err == nil && u.Scheme == "http" && !isLoopbackHost(u.Hostname()) {
			add("identity_plaintext_http", LintHigh, "bearer tokens would cross the network unencrypted")
		}
	}
	if c.Identity.MaxLoginAttempts == 0 {
		add("login_throttle_disabled", LintWarn, "repeated password failures are not throttled locally")
	}

	// Store
	backend := strings.ToLower(c.Store.Backend)
	switch {
	case backend == "" || backend == session.BackendMemory:
		add("store_not_durable", LintInfo, "the session does not survive a restart")
	case c.Store.Passphrase == "":
		add("store_plaintext", LintWarn, "the bearer token is persisted unencrypted")
	}
	if c.Store.Passphrase != "" && len(c.Store.Passphrase) < lintMinPassphraseSize {
		add("passphrase_short", LintHigh, "store passphrase is shorter than 12 characters")
	}
	if backend == session.BackendRedis && c.Store.RedisPassword == "" {
		add("redis_no_password", LintWarn, "redis connection is unauthenticated")
	}

	// Audit
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session transitions are not audited")
	}

	return ws
}

func isLoopbackHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
