package panelAuth

import (
	"context"
	"io"
	"sort"

	internalaudit "github.com/pandda-e/panelAuth/internal/audit"
)

// User is the opaque account record returned by the identity provider. The
// panel only ever reads ID and Email; everything else the provider attaches
// travels in Metadata untouched.
type User struct {
	ID       string
	Email    string
	Metadata map[string]string
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	out := &User{
		ID:    u.ID,
		Email: u.Email,
	}
	if u.Metadata != nil {
		out.Metadata = make(map[string]string, len(u.Metadata))
		for k, v := range u.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// ProviderSession is the provider's live session record: a bearer token and
// the user it belongs to. Either field may be absent depending on the call
// that produced it.
type ProviderSession struct {
	AccessToken string
	User        *User
}

// SessionLookup is the result of [Provider.GetSession]. A nil Session means
// the provider holds no live session for this client.
type SessionLookup struct {
	Session *ProviderSession
}

// UserLookup is the result of [Provider.GetUser]. A nil User means no
// authenticated user is known to the provider.
type UserLookup struct {
	User *User
}

// PasswordGrant is the result of [Provider.SignInWithPassword]. When the
// provider rejects credentials without returning a transport error, User is
// nil and Message carries the provider's rejection text.
type PasswordGrant struct {
	User    *User
	Session *ProviderSession
	Message string
}

// AuthEvent identifies a provider-pushed auth lifecycle event.
type AuthEvent string

const (
	// AuthEventSignedIn fires after a successful provider-side sign-in.
	AuthEventSignedIn AuthEvent = "SIGNED_IN"
	// AuthEventSignedOut fires when the provider session ends.
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
	// AuthEventTokenRefreshed fires when the provider rotates the bearer token.
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	// AuthEventUserUpdated fires when the provider-side account record changes.
	AuthEventUserUpdated AuthEvent = "USER_UPDATED"
	// AuthEventUserDeleted fires when the account is removed at the provider.
	AuthEventUserDeleted AuthEvent = "USER_DELETED"
)

// EventSubscription is the handle returned by [Provider.OnAuthStateChange].
// The Manager owns it for its lifetime and tears it down in [Manager.Close].
type EventSubscription interface {
	Unsubscribe()
}

// Provider is the identity-provider client interface that callers must
// implement to integrate panelAuth with their hosted auth/database service.
// All methods may be called concurrently after Initialize.
type Provider interface {
	GetSession(ctx context.Context) (SessionLookup, error)
	GetUser(ctx context.Context) (UserLookup, error)
	SignInWithPassword(ctx context.Context, email, password string) (PasswordGrant, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(handler func(AuthEvent, *ProviderSession)) (EventSubscription, error)
	FetchProfileByID(ctx context.Context, userID string) (*Profile, error)
}

// Profile is the stored profile row fetched from the provider's data store
// by user id. AdminID, LegacyAdminID, and LegacyAdminRef are the three
// historical column spellings of the owner link; resolution takes the first
// non-empty one in that order.
type Profile struct {
	Role           string
	AdminID        string
	LegacyAdminID  string
	LegacyAdminRef string
	Permissions    []string
}

// Snapshot is an immutable copy of the session state handed to readers and
// subscribers. A zero Snapshot (modulo the non-nil empty Permissions slice)
// is the canonical logged-out state.
type Snapshot struct {
	Token       string
	User        *User
	AdminID     string
	SuperAdmin  bool
	Permissions []string
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.User = s.User.clone()
	out.Permissions = make([]string, len(s.Permissions))
	copy(out.Permissions, s.Permissions)
	return out
}

// Authenticated reports whether the snapshot carries a logged-in user.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// HasPermission reports whether the snapshot's capability set contains perm.
func (s Snapshot) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func canonicalSnapshot() Snapshot {
	return Snapshot{Permissions: []string{}}
}

// normalizePermissions collapses duplicates and guarantees a non-nil slice.
// Order is not part of the contract; sorting keeps snapshots comparable.
func normalizePermissions(perms []string) []string {
	out := make([]string, 0, len(perms))
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CacheStore is the best-effort key/value string store the Manager persists
// snapshots into. Implementations swallow their own I/O failures: Get
// reports a miss, Set and Remove are fire-and-forget.
type CacheStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// AuditEvent is a structured audit record emitted by the session manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
