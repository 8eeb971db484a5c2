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
	"github.com/redis/go-redis/v9"

	panelauth "github.com/pandda-e/panelAuth"
	"github.com/pandda-e/panelAuth/cache"
)

type loadProvider struct {
	mu      sync.Mutex
	handler func(panelauth.AuthEvent, *panelauth.ProviderSession)
}

func (p *loadProvider) userFor(i int) *panelauth.User {
	return &panelauth.User{
		ID:    fmt.Sprintf("user-%d", i),
		Email: fmt.Sprintf("admin%d@example.test", i),
	}
}

func (p *loadProvider) GetSession(ctx context.Context) (panelauth.SessionLookup, error) {
	return panelauth.SessionLookup{}, nil
}

func (p *loadProvider) GetUser(ctx context.Context) (panelauth.UserLookup, error) {
	return panelauth.UserLookup{}, nil
}

func (p *loadProvider) SignInWithPassword(ctx context.Context, email, password string) (panelauth.PasswordGrant, error) {
	u := &panelauth.User{ID: "user-" + email, Email: email}
	return panelauth.PasswordGrant{
		User:    u,
		Session: &panelauth.ProviderSession{AccessToken: "tok-" + email, User: u},
	}, nil
}

func (p *loadProvider) SignOut(ctx context.Context) error { return nil }

func (p *loadProvider) OnAuthStateChange(handler func(panelauth.AuthEvent, *panelauth.ProviderSession)) (panelauth.EventSubscription, error) {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return subscription{}, nil
}

func (p *loadProvider) FetchProfileByID(ctx context.Context, userID string) (*panelauth.Profile, error) {
	return &panelauth.Profile{
		Role:        "admin",
		AdminID:     "adm-" + userID,
		Permissions: []string{"clients.view", "orders.view", "reports.view"},
	}, nil
}

func (p *loadProvider) fire(event panelauth.AuthEvent, sess *panelauth.ProviderSession) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h(event, sess)
	}
}

type subscription struct{}

func (subscription) Unsubscribe() {}

func main() {
	var (
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (sign-in + read + event)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "panelauth", "cache key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	provider := &loadProvider{}
	mgr, err := panelauth.New().
		WithCache(cache.NewRedisStore(client, *prefix, 24*time.Hour)).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Close()

	var notified int64
	unsubscribe := mgr.OnChange(func(panelauth.Snapshot) {
		atomic.AddInt64(&notified, 1)
	})
	defer unsubscribe()

	if _, err := mgr.Initialize(ctx, provider); err != nil {
		fmt.Fprintf(os.Stderr, "initialize failed: %v\n", err)
		os.Exit(1)
	}

	signInStats := runSignInPhase(ctx, mgr, *ops, *concurrency)
	readStats := runReadPhase(mgr, *ops, *concurrency)
	eventStats := runEventPhase(provider, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("signin", signInStats)
	printStats("read", readStats)
	printStats("event", eventStats)
	fmt.Printf("subscriber notifications: %d\n", atomic.LoadInt64(&notified))
}

func runSignInPhase(ctx context.Context, mgr *panelauth.Manager, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				email := fmt.Sprintf("admin%d@example.test", r.Intn(1000))
				t0 := time.Now()
				_, err := mgr.SignIn(ctx, email, "hunter2")
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runReadPhase(mgr *panelauth.Manager, ops, concurrency int) phaseStats {
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
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				snap := mgr.State()
				ok := snap.Authenticated() && mgr.HasPermission("clients.view")
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runEventPhase(provider *loadProvider, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				u := provider.userFor(r.Intn(1000))
				sess := &panelauth.ProviderSession{AccessToken: "tok-" + u.ID, User: u}
				t0 := time.Now()
				provider.fire(panelauth.AuthEventTokenRefreshed, sess)
				d := time.Since(t0)
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, 0)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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
