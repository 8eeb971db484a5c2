// Package audit implements async event dispatching for session-lifecycle
// operations.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Event] — structured audit record with timestamp, type, user, admin
//     link, and metadata.
//
// # Architecture boundaries
//
// This package owns the event model and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the Manager.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import panelAuth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
