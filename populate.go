package panelAuth

import (
	"context"
	"log"
)

// populate runs the profile population protocol: store the user, resolve
// the bearer token (session token, else a live provider session token, else
// whatever was already held), fetch the profile row, and derive superadmin /
// admin link / permissions from it. A failed profile fetch degrades instead
// of aborting: the user and token still land, superadmin is forced off, any
// previously held admin link and permissions are retained. Persists, then
// notifies.
func (m *Manager) populate(ctx context.Context, provider Provider, user *User, sess *ProviderSession) {
	token := ""
	if sess != nil {
		token = sess.AccessToken
	}
	if token == "" {
		token = fetchLiveToken(ctx, provider)
	}

	profile, perr := provider.FetchProfileByID(ctx, user.ID)
	if perr == nil && profile == nil {
		perr = errProfileMissing
	}

	m.mu.Lock()
	m.state.User = user.clone()
	if token != "" {
		m.state.Token = token
	}
	if perr != nil {
		m.state.SuperAdmin = false
		if m.state.Permissions == nil {
			m.state.Permissions = []string{}
		}
	} else {
		m.state.SuperAdmin = profile.Role == m.config.Roles.SuperadminRole
		m.state.AdminID = firstNonEmpty(profile.AdminID, profile.LegacyAdminID, profile.LegacyAdminRef)
		m.state.Permissions = normalizePermissions(profile.Permissions)
	}
	if m.state.SuperAdmin && !m.state.HasPermission(m.config.Roles.ManagePermission) {
		m.state.Permissions = append(m.state.Permissions, m.config.Roles.ManagePermission)
		m.state.Permissions = normalizePermissions(m.state.Permissions)
	}
	snap := m.state.clone()
	m.mu.Unlock()

	if perr != nil {
		log.Printf("panelAuth: profile fetch failed for user %s, degrading to non-admin state: %v", user.ID, perr)
		m.metrics.Inc(MetricProfileFallback)
		m.emitAudit(auditEventProfileFallback, false, user.ID, snap.AdminID, perr, nil)
	}

	m.persist(snap)
	m.notify(snap)
}

// fetchLiveToken asks the provider for the current session token. Failures
// and empty sessions yield "", leaving token resolution to the cached value.
func fetchLiveToken(ctx context.Context, provider Provider) string {
	res, err := provider.GetSession(ctx)
	if err != nil || res.Session == nil {
		return ""
	}
	return res.Session.AccessToken
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
