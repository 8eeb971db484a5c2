package panelAuth

import (
	"context"
	"log"
)

// handleAuthEvent is the provider push-channel handler registered during
// Initialize. Sign-out and account-deletion events clear the session;
// sign-in, token-refresh, and user-update events carrying a user re-run
// profile population from the event payload. Events may interleave with an
// in-flight SignIn or Initialize; writes are last-write-wins with no
// fencing, matching the provider's own ordering guarantees (none).
func (m *Manager) handleAuthEvent(event AuthEvent, sess *ProviderSession) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panelAuth: auth event handler panic recovered: %v", r)
		}
	}()

	if m.closed.Load() {
		return
	}
	ctx := context.Background()

	switch event {
	case AuthEventSignedOut, AuthEventUserDeleted:
		m.ClearSession(ctx)
	case AuthEventSignedIn, AuthEventTokenRefreshed, AuthEventUserUpdated:
		if sess == nil || sess.User == nil {
			return
		}
		provider := m.providerRef()
		if provider == nil {
			return
		}
		m.populate(ctx, provider, sess.User, sess)
	default:
		return
	}

	m.metrics.Inc(MetricAuthEventApplied)
	m.emitAudit(auditEventAuthEventApplied, true, eventUserID(sess), "", nil, func() map[string]string {
		return map[string]string{"event": string(event)}
	})
}

func eventUserID(sess *ProviderSession) string {
	if sess == nil || sess.User == nil {
		return ""
	}
	return sess.User.ID
}
