package panelAuth

import (
	"testing"
)

func TestAuthEventSignedOutClearsSession(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)

	p.fire(t, AuthEventSignedOut, nil)

	if m.IsAuthenticated() {
		t.Fatal("expected session cleared on SIGNED_OUT")
	}
	if got := m.metrics.Value(MetricAuthEventApplied); got != 1 {
		t.Fatalf("expected 1 applied event, got %d", got)
	}
}

func TestAuthEventUserDeletedClearsSession(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)

	p.fire(t, AuthEventUserDeleted, nil)

	if m.IsAuthenticated() {
		t.Fatal("expected session cleared on USER_DELETED")
	}
}

func TestAuthEventTokenRefreshedRepopulates(t *testing.T) {
	m := newTestManager(t)
	user := &User{ID: "user-1"}
	p := liveSessionProvider(user, "tok-1")
	mustInitialize(t, m, p)

	p.fire(t, AuthEventTokenRefreshed, &ProviderSession{
		AccessToken: "tok-2",
		User:        user,
	})

	if got := m.Token(); got != "tok-2" {
		t.Fatalf("expected refreshed token, got %q", got)
	}
}

func TestAuthEventUserUpdatedRepopulates(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1", Email: "old@example.com"}, "tok-1")
	mustInitialize(t, m, p)

	p.fire(t, AuthEventUserUpdated, &ProviderSession{
		AccessToken: "tok-1",
		User:        &User{ID: "user-1", Email: "new@example.com"},
	})

	if got := m.CurrentUser().Email; got != "new@example.com" {
		t.Fatalf("expected updated email, got %q", got)
	}
}

func TestAuthEventWithoutUserIgnored(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)
	before := m.State()

	p.fire(t, AuthEventTokenRefreshed, &ProviderSession{AccessToken: "tok-other"})
	p.fire(t, AuthEventTokenRefreshed, nil)

	after := m.State()
	if after.Token != before.Token {
		t.Fatalf("expected state untouched, got token %q", after.Token)
	}
	if got := m.metrics.Value(MetricAuthEventApplied); got != 0 {
		t.Fatalf("expected no applied events, got %d", got)
	}
}

func TestAuthEventUnknownIgnored(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)

	p.fire(t, AuthEvent("MFA_CHALLENGE"), &ProviderSession{
		AccessToken: "tok-x",
		User:        &User{ID: "user-1"},
	})

	if got := m.Token(); got != "tok-1" {
		t.Fatalf("expected state untouched, got token %q", got)
	}
}

func TestAuthEventAfterCloseIgnored(t *testing.T) {
	m := newTestManager(t)
	p := liveSessionProvider(&User{ID: "user-1"}, "tok-1")
	mustInitialize(t, m, p)
	m.Close()

	p.fire(t, AuthEventSignedOut, nil)

	if !m.IsAuthenticated() {
		t.Fatal("expected events ignored after Close")
	}
}
