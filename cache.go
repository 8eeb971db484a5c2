package panelAuth

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/pandda-e/panelAuth/token"
)

// cachedSnapshot is the wire form of a persisted snapshot. The field names
// match the entry the browser panel wrote to localStorage, so a Go-hosted
// panel can read a cache left behind by the legacy client.
type cachedSnapshot struct {
	Token       string      `json:"token,omitempty"`
	User        *cachedUser `json:"user,omitempty"`
	AdminID     string      `json:"adminId,omitempty"`
	SuperAdmin  bool        `json:"isSuper,omitempty"`
	Permissions []string    `json:"permissions"`
}

type cachedUser struct {
	ID       string            `json:"id"`
	Email    string            `json:"email,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func toCachedSnapshot(snap Snapshot) cachedSnapshot {
	out := cachedSnapshot{
		Token:       snap.Token,
		AdminID:     snap.AdminID,
		SuperAdmin:  snap.SuperAdmin,
		Permissions: snap.Permissions,
	}
	if snap.User != nil {
		out.User = &cachedUser{
			ID:       snap.User.ID,
			Email:    snap.User.Email,
			Metadata: snap.User.Metadata,
		}
	}
	return out
}

func (c cachedSnapshot) toSnapshot() Snapshot {
	out := Snapshot{
		Token:       c.Token,
		AdminID:     c.AdminID,
		SuperAdmin:  c.SuperAdmin,
		Permissions: normalizePermissions(c.Permissions),
	}
	if c.User != nil {
		out.User = &User{
			ID:       c.User.ID,
			Email:    c.User.Email,
			Metadata: c.User.Metadata,
		}
	}
	return out
}

// hydrateFromCache loads the persisted snapshot into the state without
// notifying anyone; the provider reconciliation that follows decides what
// subscribers eventually see. Returns the cached user for the resolution
// fallback chain. Missing or corrupt entries are a silent miss.
func (m *Manager) hydrateFromCache() *User {
	raw, ok := m.cache.Get(m.config.Cache.Key)
	if !ok {
		return nil
	}

	var cached cachedSnapshot
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		m.metrics.Inc(MetricCacheCorrupt)
		log.Print("panelAuth: ignoring corrupt session cache entry")
		return nil
	}

	st := cached.toSnapshot()
	if st.User == nil {
		// A userless cache entry has nothing to restore.
		return nil
	}
	if m.config.Cache.DropExpiredToken && st.Token != "" {
		if claims, err := token.Inspect(st.Token); err == nil && claims.Expired(time.Now()) {
			st.Token = ""
		}
	}
	if st.SuperAdmin && !st.HasPermission(m.config.Roles.ManagePermission) {
		st.Permissions = normalizePermissions(append(st.Permissions, m.config.Roles.ManagePermission))
	}

	m.mu.Lock()
	m.state = st
	m.mu.Unlock()

	m.metrics.Inc(MetricCacheHit)
	return st.User.clone()
}

// persist writes the snapshot to the cache store. Must complete before the
// matching notify so a subscriber restarting mid-callback finds the state it
// was told about.
func (m *Manager) persist(snap Snapshot) {
	raw, err := json.Marshal(toCachedSnapshot(snap))
	if err != nil {
		log.Print("panelAuth: session cache encode failed")
		return
	}
	m.cache.Set(m.config.Cache.Key, string(raw))
}

// MemoryStore is the default [CacheStore]: an in-process map that lives as
// long as the process does. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
	}
}

// Get returns the stored value and whether it was present.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous entry.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
