package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID names one Manager counter.
type MetricID uint16

const (
	// MetricHydrateRestored counts hydrates that restored a session.
	MetricHydrateRestored MetricID = iota
	// MetricHydrateEmpty counts hydrates that found no record.
	MetricHydrateEmpty
	// MetricHydrateCorrupt counts records discarded as undecodable.
	MetricHydrateCorrupt
	// MetricHydrateExpired counts records discarded as already expired.
	MetricHydrateExpired
	// MetricLoginSuccess counts committed logins.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected password logins.
	MetricLoginFailure
	// MetricLoginRateLimited counts password logins refused locally.
	MetricLoginRateLimited
	// MetricLoginSuperseded counts logins discarded because of a later logout or login.
	MetricLoginSuperseded
	// MetricEnrichSuccess counts successful role enrichments.
	MetricEnrichSuccess
	// MetricEnrichFailure counts swallowed role enrichment failures.
	MetricEnrichFailure
	// MetricLogout counts logouts that ended an active session.
	MetricLogout
	// MetricSessionExpired counts sessions ended by the expiry timer.
	MetricSessionExpired
	// MetricStoreError counts absorbed credential store failures.
	MetricStoreError
	// MetricRegisterSuccess counts successful registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts failed registrations.
	MetricRegisterFailure
	// MetricProfileRefresh counts successful profile refreshes.
	MetricProfileRefresh
	// MetricProfileRefreshFailure counts failed profile refreshes.
	MetricProfileRefreshFailure
	// MetricIdentityLatency is the Identity Service call latency histogram.
	MetricIdentityLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
	sumNs   uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus one latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// HistogramSums holds the total observed duration per histogram.
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricIdentityLatency has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricIdentityLatency {
		return
	}
	if d < 0 {
		d = 0
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&m.histograms[id].sumNs, uint64(d))
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricIdentityLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricIdentityLatency].buckets[i])
		}
		s.Histograms[MetricIdentityLatency] = buckets
		s.HistogramSums[MetricIdentityLatency] = time.Duration(atomic.LoadUint64(&m.histograms[MetricIdentityLatency].sumNs))
	}
	return s
}

// HistogramBounds are the inclusive upper bounds of the latency buckets; the
// last bucket is unbounded.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2500 * time.Millisecond,
	5 * time.Second,
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
