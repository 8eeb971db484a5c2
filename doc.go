// Package panelAuth provides the session core for the pandda admin panel: a
// single observable authentication/authorization state reconciled against a
// remote identity provider, with a locally persisted snapshot cache and
// change notifications for UI consumers (router guards, sidebar, topbar, API
// client).
//
// The package is designed for concurrent callers: Manager methods are safe to
// call from multiple goroutines after construction through [Builder.Build].
//
// # Architecture boundaries
//
// panelAuth is the public surface. It exposes [Manager], [Builder], [Config],
// the [Provider] and [CacheStore] integration interfaces, and value types
// (Snapshot, Profile, MetricsSnapshot, etc.). Audit event plumbing lives
// under internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Talk to any concrete identity provider. All remote calls go through
//     the [Provider] interface supplied at Initialize.
//   - Hand out live references to the session state. Every read returns a
//     copy; consumers mutate only through Manager methods.
//   - Surface transient infrastructure failures. Provider outages during
//     initialization and cache I/O errors degrade to a safe logged-out or
//     cached state instead of propagating.
//
// # Failure contract
//
// Only caller misuse ([ErrProviderRequired], [ErrNotInitialized]) and genuine
// credential rejection ([ErrAuthenticationFailed]) are returned as errors.
// Everything else is retried, degraded, or swallowed with a log line.
package panelAuth
