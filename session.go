package panelAuth

import (
	"context"
	"fmt"
	"log"
)

// SignIn delegates credential verification to the identity provider and, on
// success, runs full profile population from the returned user and session.
// On rejection it returns an error wrapping [ErrAuthenticationFailed] with
// the provider's message and leaves the prior state untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Snapshot, error) {
	provider := m.providerRef()
	if provider == nil {
		return Snapshot{}, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	grant, err := provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.metrics.Inc(MetricSignInFailure)
		m.emitAudit(auditEventSignInFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"identifier": email}
		})
		return Snapshot{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if grant.User == nil {
		msg := grant.Message
		if msg == "" {
			msg = "no user returned"
		}
		m.metrics.Inc(MetricSignInFailure)
		m.emitAudit(auditEventSignInFailure, false, "", "", ErrAuthenticationFailed, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     msg,
			}
		})
		return Snapshot{}, fmt.Errorf("%w: %s", ErrAuthenticationFailed, msg)
	}

	m.populate(ctx, provider, grant.User, grant.Session)

	m.metrics.Inc(MetricSignInSuccess)
	m.emitAudit(auditEventSignInSuccess, true, grant.User.ID, m.AdminID(), nil, func() map[string]string {
		return map[string]string{"identifier": email}
	})

	return m.State(), nil
}

// SignOut performs a best-effort remote sign-out followed by an
// unconditional local clear. Remote failures are logged, never surfaced.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.providerRef() == nil {
		return ErrNotInitialized
	}

	userID := ""
	if u := m.CurrentUser(); u != nil {
		userID = u.ID
	}
	m.metrics.Inc(MetricSignOut)
	m.emitAudit(auditEventSignOut, true, userID, m.AdminID(), nil, nil)

	m.ClearSession(ctx)
	return nil
}

// ClearSession resets the state to the canonical logged-out snapshot,
// removes the persisted cache entry, and notifies subscribers. A registered
// provider gets a best-effort remote sign-out first. Idempotent; always
// succeeds from the caller's perspective.
func (m *Manager) ClearSession(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	if provider := m.providerRef(); provider != nil {
		if err := provider.SignOut(ctx); err != nil {
			log.Printf("panelAuth: remote sign-out failed, clearing local session anyway: %v", err)
		}
	}

	m.metrics.Inc(MetricSessionCleared)
	m.emitAudit(auditEventSessionCleared, true, "", "", nil, nil)

	m.resetLocal()
}

// SetSession replaces the session state wholesale — no merge with previous
// fields. Permissions are normalized to a deduplicated set and the
// superadmin capability invariant is enforced; a snapshot without a user
// collapses to the canonical logged-out state. Persists and notifies.
func (m *Manager) SetSession(snap Snapshot) {
	next := snap.clone()
	next.Permissions = normalizePermissions(next.Permissions)
	if next.User == nil {
		next = canonicalSnapshot()
	}
	if next.SuperAdmin && !next.HasPermission(m.config.Roles.ManagePermission) {
		next.Permissions = append(next.Permissions, m.config.Roles.ManagePermission)
		next.Permissions = normalizePermissions(next.Permissions)
	}

	m.mu.Lock()
	m.state = next
	out := m.state.clone()
	m.mu.Unlock()

	m.metrics.Inc(MetricSetSession)
	m.persist(out)
	m.notify(out)
}
