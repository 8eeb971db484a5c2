// Package cache provides durable snapshot cache stores for the session
// manager: a Redis-backed store for multi-process panel hosts and a SQLite
// store for single hosts that want persistence across restarts without an
// external service.
//
// Both stores satisfy the root package's CacheStore contract: best-effort
// key/value strings, with I/O failures swallowed (a failed read is a miss,
// a failed write is a logged no-op). Session correctness never depends on
// the cache — the identity provider stays authoritative.
package cache
