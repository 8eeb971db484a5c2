package panelAuth

import "errors"

var (
	// ErrProviderRequired is returned by [Manager.Initialize] when no
	// identity provider client is supplied.
	ErrProviderRequired = errors.New("identity provider client required")
	// ErrNotInitialized is returned by [Manager.SignIn] and
	// [Manager.SignOut] when no provider has been registered through
	// [Manager.Initialize] yet.
	ErrNotInitialized = errors.New("session manager not initialized")
	// ErrAuthenticationFailed is returned by [Manager.SignIn] on credential
	// rejection. The wrapped error text carries the provider's message;
	// match with errors.Is.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrManagerClosed is returned when an operation is attempted after
	// [Manager.Close].
	ErrManagerClosed = errors.New("session manager closed")
)

// errProfileMissing marks an error-free profile fetch that returned no row;
// it takes the same degraded path as a transport failure.
var errProfileMissing = errors.New("profile row not found")
