package panelAuth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeProvider is the test double for the identity provider. Behavior is
// overridden per test via the *Fn fields; unset fields fall back to an
// empty, error-free provider with a plain admin profile.
type fakeProvider struct {
	mu sync.Mutex

	sessionFn func(ctx context.Context) (SessionLookup, error)
	userFn    func(ctx context.Context) (UserLookup, error)
	signInFn  func(ctx context.Context, email, password string) (PasswordGrant, error)
	signOutFn func(ctx context.Context) error
	profileFn func(ctx context.Context, userID string) (*Profile, error)

	subscribeErr error
	handler      func(AuthEvent, *ProviderSession)

	sessionCalls atomic.Int64
	userCalls    atomic.Int64
	signInCalls  atomic.Int64
	signOutCalls atomic.Int64
	profileCalls atomic.Int64
	unsubscribed atomic.Bool
}

func (p *fakeProvider) GetSession(ctx context.Context) (SessionLookup, error) {
	p.sessionCalls.Add(1)
	if p.sessionFn != nil {
		return p.sessionFn(ctx)
	}
	return SessionLookup{}, nil
}

func (p *fakeProvider) GetUser(ctx context.Context) (UserLookup, error) {
	p.userCalls.Add(1)
	if p.userFn != nil {
		return p.userFn(ctx)
	}
	return UserLookup{}, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (PasswordGrant, error) {
	p.signInCalls.Add(1)
	if p.signInFn != nil {
		return p.signInFn(ctx, email, password)
	}
	return PasswordGrant{Message: "invalid login credentials"}, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.signOutCalls.Add(1)
	if p.signOutFn != nil {
		return p.signOutFn(ctx)
	}
	return nil
}

func (p *fakeProvider) OnAuthStateChange(handler func(AuthEvent, *ProviderSession)) (EventSubscription, error) {
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return &fakeSubscription{provider: p}, nil
}

func (p *fakeProvider) FetchProfileByID(ctx context.Context, userID string) (*Profile, error) {
	p.profileCalls.Add(1)
	if p.profileFn != nil {
		return p.profileFn(ctx, userID)
	}
	return &Profile{
		Role:        "admin",
		AdminID:     "adm-" + userID,
		Permissions: []string{"clients.view"},
	}, nil
}

// fire invokes the registered auth-event handler, as the provider's push
// channel would.
func (p *fakeProvider) fire(t *testing.T, event AuthEvent, sess *ProviderSession) {
	t.Helper()
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h == nil {
		t.Fatal("no auth event handler registered")
	}
	h(event, sess)
}

type fakeSubscription struct {
	provider *fakeProvider
}

func (s *fakeSubscription) Unsubscribe() {
	s.provider.unsubscribed.Store(true)
}

// testConfig shrinks the retry delay so failure-path tests stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Init.RetryDelay = time.Millisecond
	return cfg
}

func newTestManager(t *testing.T, opts ...func(*Builder)) *Manager {
	t.Helper()

	b := New().
		WithConfig(testConfig()).
		WithMetricsEnabled(true)
	for _, opt := range opts {
		opt(b)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func mustInitialize(t *testing.T, m *Manager, p Provider) Snapshot {
	t.Helper()
	snap, err := m.Initialize(context.Background(), p)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return snap
}

func liveSessionProvider(user *User, token string) *fakeProvider {
	sess := &ProviderSession{AccessToken: token, User: user}
	return &fakeProvider{
		sessionFn: func(context.Context) (SessionLookup, error) {
			return SessionLookup{Session: sess}, nil
		},
	}
}

// signTestToken issues an HS256 token the way the hosted provider would.
// A zero exp leaves the claim out entirely.
func signTestToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: subject}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return raw
}

func hasPerm(perms []string, want string) bool {
	for _, p := range perms {
		if p == want {
			return true
		}
	}
	return false
}
