package panelAuth

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

type managerPhase uint8

const (
	phaseUninitialized managerPhase = iota
	phaseInitializing
	phaseReady
)

// Manager is the single source of truth for "is there a logged-in user, who
// are they, and what can they do". It reconciles a locally cached snapshot
// with the authoritative identity provider and broadcasts every state change
// to subscribers.
//
// Manager instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
	cache  CacheStore

	mu       sync.Mutex
	state    Snapshot
	phase    managerPhase
	initDone chan struct{}
	provider Provider
	eventSub EventSubscription

	subsMu      sync.Mutex
	subscribers map[string]func(Snapshot)

	audit   *auditDispatcher
	metrics *Metrics
	closed  atomic.Bool
}

// Initialize registers the identity provider client and reconciles local
// state against it: cached snapshot first (best effort), then the provider's
// live session with fixed-delay retries, then a direct current-user lookup,
// then the cached user, then the canonical logged-out state. It also
// registers the provider auth-event subscription for the Manager's lifetime.
//
// Exactly one initialization runs per Manager. Concurrent callers wait for
// the in-flight attempt (bounded by [InitConfig.WaitTimeout]) and receive
// the resulting snapshot; calling again after completion is a no-op that
// returns the current snapshot. Transient provider failures never surface
// as errors; only a nil provider does.
func (m *Manager) Initialize(ctx context.Context, provider Provider) (Snapshot, error) {
	if provider == nil {
		return Snapshot{}, ErrProviderRequired
	}
	if m.closed.Load() {
		return Snapshot{}, ErrManagerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	switch m.phase {
	case phaseReady:
		snap := m.state.clone()
		m.mu.Unlock()
		return snap, nil
	case phaseInitializing:
		done := m.initDone
		m.mu.Unlock()
		timer := time.NewTimer(m.config.Init.WaitTimeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-ctx.Done():
		}
		return m.State(), nil
	}
	m.phase = phaseInitializing
	done := make(chan struct{})
	m.initDone = done
	m.provider = provider
	m.mu.Unlock()

	start := time.Now()
	m.runInitialize(ctx, provider)
	m.metrics.Observe(MetricInitializeLatency, time.Since(start))

	m.mu.Lock()
	m.phase = phaseReady
	m.mu.Unlock()
	close(done)

	return m.State(), nil
}

func (m *Manager) runInitialize(ctx context.Context, provider Provider) {
	cachedUser := m.hydrateFromCache()

	sess := m.lookupSessionWithRetry(ctx, provider)

	var user *User
	restoredFromCache := false
	if sess != nil {
		user = sess.User
	}
	if user == nil {
		lookup, err := provider.GetUser(ctx)
		if err != nil {
			log.Print("panelAuth: current-user lookup failed, falling back to cache")
		} else {
			user = lookup.User
		}
	}
	if user == nil && cachedUser != nil {
		user = cachedUser
		restoredFromCache = true
	}

	if user == nil {
		m.metrics.Inc(MetricInitializeEmpty)
		m.emitAudit(auditEventInitializeEmpty, true, "", "", nil, nil)
		m.resetLocal()
	} else {
		m.populate(ctx, provider, user, sess)
		source := "provider"
		if restoredFromCache {
			m.metrics.Inc(MetricSessionRestoredCache)
			source = "cache"
		} else {
			m.metrics.Inc(MetricSessionRestoredProvider)
		}
		m.emitAudit(auditEventSessionRestored, true, user.ID, m.AdminID(), nil, func() map[string]string {
			return map[string]string{"source": source}
		})
	}

	m.registerAuthEvents(provider)
}

// lookupSessionWithRetry queries the provider for a live session. Transport
// failures are retried with a fixed delay; an error-free empty result is
// authoritative and returned immediately.
func (m *Manager) lookupSessionWithRetry(ctx context.Context, provider Provider) *ProviderSession {
	attempts := m.config.Init.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			m.metrics.Inc(MetricInitializeRetry)
			timer := time.NewTimer(m.config.Init.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
		}
		res, err := provider.GetSession(ctx)
		if err == nil {
			return res.Session
		}
		log.Printf("panelAuth: session lookup failed (attempt %d/%d): %v", attempt+1, attempts, err)
	}
	return nil
}

// resetLocal drops the state to the canonical logged-out snapshot, removes
// the cache entry, and notifies subscribers. No remote call is made.
func (m *Manager) resetLocal() Snapshot {
	m.mu.Lock()
	m.state = canonicalSnapshot()
	snap := m.state.clone()
	m.mu.Unlock()

	m.cache.Remove(m.config.Cache.Key)
	m.notify(snap)
	return snap
}

func (m *Manager) registerAuthEvents(provider Provider) {
	m.mu.Lock()
	already := m.eventSub != nil
	m.mu.Unlock()
	if already {
		return
	}

	sub, err := provider.OnAuthStateChange(m.handleAuthEvent)
	if err != nil {
		log.Printf("panelAuth: auth event subscription failed: %v", err)
		return
	}

	m.mu.Lock()
	m.eventSub = sub
	m.mu.Unlock()
}

func (m *Manager) providerRef() Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}

// Close tears down the provider event subscription and flushes the audit
// dispatcher. Idempotent. The session state itself is left untouched; a
// closed Manager still serves reads.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.closed.Swap(true) {
		return
	}

	m.mu.Lock()
	sub := m.eventSub
	m.eventSub = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}
