package panelAuth

import (
	"sync"
	"testing"
)

func TestOnChangeReceivesEveryMutation(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")

	var got []Snapshot
	unsubscribe := m.OnChange(func(s Snapshot) { got = append(got, s) })
	defer unsubscribe()

	mustInitialize(t, m, p)
	m.SetSession(Snapshot{User: &User{ID: "user-2"}})
	m.ClearSession(nil)

	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	if got[0].User.ID != "user-1" || got[1].User.ID != "user-2" || got[2].Authenticated() {
		t.Fatalf("unexpected notification sequence: %+v", got)
	}
}

func TestOnChangeUnsubscribeStopsDelivery(t *testing.T) {
	m := newTestManager(t)

	calls := 0
	unsubscribe := m.OnChange(func(Snapshot) { calls++ })

	m.SetSession(Snapshot{User: &User{ID: "user-1"}})
	unsubscribe()
	m.SetSession(Snapshot{User: &User{ID: "user-2"}})

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestSubscriberPanicIsolated(t *testing.T) {
	m := newTestManager(t)

	var survivorCalls int
	stop1 := m.OnChange(func(Snapshot) { panic("subscriber bug") })
	stop2 := m.OnChange(func(Snapshot) { survivorCalls++ })
	defer stop1()
	defer stop2()

	m.SetSession(Snapshot{User: &User{ID: "user-1"}})

	if survivorCalls != 1 {
		t.Fatalf("expected surviving subscriber called, got %d", survivorCalls)
	}
	if got := m.metrics.Value(MetricSubscriberPanic); got != 1 {
		t.Fatalf("expected panic counted once, got %d", got)
	}
}

func TestSubscriberSeesCommittedState(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, func(b *Builder) { b.WithCache(store) })

	var persistedAtNotify bool
	var tokenAtNotify string
	unsubscribe := m.OnChange(func(s Snapshot) {
		_, persistedAtNotify = store.Get("pandda_session_v1")
		tokenAtNotify = m.Token()
	})
	defer unsubscribe()

	m.SetSession(Snapshot{Token: "tok-1", User: &User{ID: "user-1"}})

	if !persistedAtNotify {
		t.Fatal("expected cache persisted before notification")
	}
	if tokenAtNotify != "tok-1" {
		t.Fatalf("expected accessor to observe committed state, got %q", tokenAtNotify)
	}
}

func TestSnapshotCopiesAreIsolated(t *testing.T) {
	m := newTestManager(t)
	m.SetSession(Snapshot{
		User:        &User{ID: "user-1", Metadata: map[string]string{"k": "v"}},
		Permissions: []string{"a.view"},
	})

	snap := m.State()
	snap.Permissions[0] = "tampered"
	snap.User.ID = "tampered"
	snap.User.Metadata["k"] = "tampered"

	fresh := m.State()
	if fresh.Permissions[0] != "a.view" || fresh.User.ID != "user-1" || fresh.User.Metadata["k"] != "v" {
		t.Fatalf("expected internal state unaffected by caller mutation, got %+v", fresh)
	}
}

func TestAccessorsOnLoggedOutManager(t *testing.T) {
	m := newTestManager(t)

	if m.IsAuthenticated() || m.IsSuperAdmin() {
		t.Fatal("expected logged-out defaults")
	}
	if m.CurrentUser() != nil {
		t.Fatal("expected nil current user")
	}
	if m.AdminID() != "" || m.Token() != "" {
		t.Fatal("expected empty admin id and token")
	}
	if m.HasPermission("anything") {
		t.Fatal("expected no permissions")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if w%2 == 0 {
					_ = m.State()
					_ = m.HasPermission("clients.view")
				} else {
					m.SetSession(Snapshot{User: &User{ID: "user-1"}, Permissions: []string{"clients.view"}})
				}
			}
		}(w)
	}
	wg.Wait()

	if !m.IsAuthenticated() {
		t.Fatal("expected authenticated state after concurrent churn")
	}
}
