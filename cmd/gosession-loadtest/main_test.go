package main

import (
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 0); got != 1 {
		t.Fatalf("p0: expected 1, got %d", got)
	}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50: expected 5, got %d", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100: expected 10, got %d", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty: expected 0, got %d", got)
	}
}

func TestComputeStatsSortsSamples(t *testing.T) {
	s := computeStats(time.Second, []time.Duration{30, 10, 20}, 1)
	if s.ops != 3 || s.failures != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.p50 != 20 || s.p99 != 20 {
		t.Fatalf("unexpected percentiles: %+v", s)
	}
	if s.opsPerS != 3 {
		t.Fatalf("expected 3 ops/sec, got %v", s.opsPerS)
	}
}

func TestBuildSessionIsPersistable(t *testing.T) {
	s := buildSession(3)
	if !s.Valid() {
		t.Fatalf("expected valid session, got %+v", s)
	}
}
