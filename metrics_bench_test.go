package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal/clock"
	"github.com/MrEthical07/goSession/session"
)

// latencySamples spans every histogram bucket including +Inf.
var latencySamples = [...]time.Duration{
	20 * time.Millisecond,
	80 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	900 * time.Millisecond,
	2 * time.Second,
	4 * time.Second,
	9 * time.Second,
}

func BenchmarkMetricsObserveIdentityLatency(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Observe(MetricIdentityLatency, latencySamples[i%len(latencySamples)])
			i++
		}
	})
}

func BenchmarkMetricsSnapshotDuringWrites(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				m.Inc(MetricID(i % int(MetricIdentityLatency)))
				m.Observe(MetricIdentityLatency, latencySamples[(i+w)%len(latencySamples)])
			}
		}(w)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snap := m.Snapshot()
		if len(snap.Counters) == 0 {
			b.Fatal("expected counters in snapshot")
		}
	}
	b.StopTimer()
	close(stop)
	wg.Wait()
}

// The login/logout cycle runs on a fake clock so the expiry timer is a
// map entry rather than a runtime timer; the two variants isolate the cost
// of counting.
func BenchmarkLoginLogoutCountingEnabled(b *testing.B) {
	benchmarkCountedLoginLogout(b, true)
}

func BenchmarkLoginLogoutCountingDisabled(b *testing.B) {
	benchmarkCountedLoginLogout(b, false)
}

func benchmarkCountedLoginLogout(b *testing.B, enabled bool) {
	cfg := DefaultConfig()
	cfg.Session.EnrichRole = false
	cfg.Metrics.Enabled = enabled

	m, err := New().
		WithConfig(cfg).
		WithStore(session.NewMemoryStore()).
		WithClock(clock.NewFakeMillis(1000)).
		Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	b.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()
	m.Hydrate(ctx)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Login(ctx, Credentials{Token: "tok", Role: session.RoleUser}); err != nil {
			b.Fatalf("login failed: %v", err)
		}
		m.Logout(ctx)
	}
	b.StopTimer()

	if enabled && m.MetricsSnapshot().Counters[MetricLogout] != uint64(b.N) {
		b.Fatalf("logout counter = %d, want %d", m.MetricsSnapshot().Counters[MetricLogout], b.N)
	}
}

func BenchmarkCurrentWhileLoggingIn(b *testing.B) {
	m := newBenchmarkManager(b, session.NewMemoryStore())
	ctx := context.Background()
	if _, err := m.Login(ctx, Credentials{Token: "tok", Role: session.RoleUser}); err != nil {
		b.Fatalf("login failed: %v", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, _ = m.Login(ctx, Credentials{Token: "tok", Role: session.RoleUser})
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = m.Current()
		}
	})
	b.StopTimer()
	close(stop)
	<-done
}
