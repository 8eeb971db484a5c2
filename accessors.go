package panelAuth

import (
	"log"

	"github.com/google/uuid"
)

// State returns a copy of the current session snapshot.
func (m *Manager) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User.clone()
}

// AdminID returns the tenant/owner link derived from the profile row, or ""
// when absent.
func (m *Manager) AdminID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AdminID
}

// IsSuperAdmin reports whether the logged-in user holds the superadmin role.
func (m *Manager) IsSuperAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SuperAdmin
}

// HasPermission reports whether the current capability set contains perm.
func (m *Manager) HasPermission(perm string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.HasPermission(perm)
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

// IsAuthenticated reports whether a user is logged in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Authenticated()
}

// OnChange registers fn to receive a snapshot after every state mutation
// and returns its unsubscribe function. A panicking subscriber is recovered
// and logged; it never blocks other subscribers or the mutating caller.
func (m *Manager) OnChange(fn func(Snapshot)) func() {
	id := uuid.NewString()

	m.subsMu.Lock()
	m.subscribers[id] = fn
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		delete(m.subscribers, id)
		m.subsMu.Unlock()
	}
}

// notify fans the snapshot out to all subscribers. Called only after the
// state write and cache persist are complete, so accessors invoked from a
// callback observe the just-committed state.
func (m *Manager) notify(snap Snapshot) {
	m.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.subsMu.Unlock()

	for _, fn := range fns {
		m.invokeSubscriber(fn, snap.clone())
	}
}

func (m *Manager) invokeSubscriber(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.Inc(MetricSubscriberPanic)
			log.Printf("panelAuth: subscriber panic recovered: %v", r)
		}
	}()
	fn(snap)
}
