package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricHydrateRestored, Name: "gosession_hydrate_restored_total", Help: "Hydrates that restored a persisted session."},
	{ID: goSession.MetricHydrateEmpty, Name: "gosession_hydrate_empty_total", Help: "Hydrates that found no persisted session."},
	{ID: goSession.MetricHydrateCorrupt, Name: "gosession_hydrate_corrupt_total", Help: "Persisted sessions discarded as undecodable."},
	{ID: goSession.MetricHydrateExpired, Name: "gosession_hydrate_expired_total", Help: "Persisted sessions discarded as expired."},
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Committed logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Rejected password logins."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Password logins refused by the local throttle."},
	{ID: goSession.MetricLoginSuperseded, Name: "gosession_login_superseded_total", Help: "Logins discarded by a later logout or login."},
	{ID: goSession.MetricEnrichSuccess, Name: "gosession_enrich_success_total", Help: "Successful role enrichments."},
	{ID: goSession.MetricEnrichFailure, Name: "gosession_enrich_failure_total", Help: "Failed role enrichments."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Sessions ended for any reason."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions ended by the expiry timer."},
	{ID: goSession.MetricStoreError, Name: "gosession_store_error_total", Help: "Absorbed credential store failures."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Successful registrations."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Failed registrations."},
	{ID: goSession.MetricProfileRefresh, Name: "gosession_profile_refresh_total", Help: "Successful profile refreshes."},
	{ID: goSession.MetricProfileRefreshFailure, Name: "gosession_profile_refresh_failure_total", Help: "Failed profile refreshes."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricIdentityLatency, Name: "gosession_identity_latency_seconds", Help: "Identity Service call latency."},
}

// AuditDroppedName and AuditDroppedHelp describe the audit drop counter.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds, matching
// goSession.HistogramBounds. The last bucket is +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HistogramBoundSuffix names each bucket, +Inf last, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
