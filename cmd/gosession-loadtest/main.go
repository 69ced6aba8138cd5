// Command gosession-loadtest measures credential store latency under
// concurrent record reads and writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrEthical07/goSession/session"
)

func main() {
	var (
		keys        = flag.Int("keys", 10000, "number of records to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (read + write)")
		backend     = flag.String("backend", session.BackendRedis, "store backend: memory, file, sqlite or redis")
		dir         = flag.String("dir", "", "file backend directory (default: temp dir)")
		path        = flag.String("path", "", "sqlite backend file (default: temp file)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gs-load", "redis key prefix")
		passphrase  = flag.String("passphrase", "", "wrap the backend in a sealed store")
	)
	flag.Parse()

	if *keys <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "keys, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	opts := session.StoreOptions{
		Backend:     *backend,
		Dir:         *dir,
		Path:        *path,
		RedisAddr:   *redisAddr,
		RedisPrefix: *prefix,
		Passphrase:  *passphrase,
	}
	cleanup, err := prepare(&opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepare %s backend: %v\n", opts.Backend, err)
		os.Exit(1)
	}
	defer cleanup()

	store, closeStore, err := session.OpenStore(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeStore() }()

	ctx := context.Background()
	names := make([]string, *keys)
	fmt.Printf("seeding %d records...\n", *keys)
	startSeed := time.Now()
	for i := range names {
		names[i] = fmt.Sprintf("load-%d", i)
		if err := write(ctx, store, names[i], i); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		raw, err := store.Get(ctx, names[r.Intn(len(names))])
		if err != nil {
			return err
		}
		_, err = session.Decode(raw)
		return err
	})
	writeStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, i int) error {
		return write(ctx, store, names[r.Intn(len(names))], i)
	})

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("write", writeStats)
}

// prepare fills in throwaway locations for backends that need one.
func prepare(opts *session.StoreOptions) (func(), error) {
	cleanup := func() {}
	switch opts.Backend {
	case session.BackendRedis:
		if opts.RedisAddr == "" {
			opts.RedisAddr = os.Getenv("REDIS_ADDR")
		}
		if opts.RedisAddr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				return nil, err
			}
			opts.RedisAddr = mr.Addr()
			cleanup = mr.Close
			fmt.Printf("using miniredis at %s\n", opts.RedisAddr)
		} else {
			fmt.Printf("using redis at %s\n", opts.RedisAddr)
		}
	case session.BackendFile, session.BackendSQLite:
		if opts.Dir != "" || opts.Path != "" {
			return cleanup, nil
		}
		tmp, err := os.MkdirTemp("", "gosession-load-")
		if err != nil {
			return nil, err
		}
		opts.Dir = tmp
		opts.Path = tmp + "/load.db"
		cleanup = func() { _ = os.RemoveAll(tmp) }
	}
	return cleanup, nil
}

func write(ctx context.Context, store session.Store, key string, i int) error {
	raw, err := session.Encode(buildSession(i))
	if err != nil {
		return err
	}
	return store.Set(ctx, key, raw, time.Hour)
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildSession(i int) session.Session {
	return session.Session{
		Identity:  session.ID(fmt.Sprintf("u%d", i)),
		Username:  fmt.Sprintf("user-%d", i),
		Role:      session.RoleUser,
		Token:     fmt.Sprintf("token-%d", i),
		ExpiresAt: time.Now().Add(24 * time.Hour).UnixMilli(),
	}
}
