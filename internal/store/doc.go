// Package store provides SQLite-backed storage for recorded trace runs.
//
// The CLI records each `playback trace --db` run so that `playback replay`
// can re-execute it later and check the fingerprint still matches. Only
// tool output is stored; widget state is never persisted.
//
// The store holds:
//   - Runs: script reference, the answers submitted, the trace fingerprint
//   - Run events: the outbound calls of a run, payloads as canonical JSON
//
// # Critical Patterns
//
// Logical ordering:
//   - Runs are ordered by created_seq INTEGER, NEVER by timestamps
//   - Events are ordered by their trace seq
//
// Deterministic query results:
//   - All list queries include ORDER BY ... , id COLLATE BINARY ASC
//
// Run ids are UUIDv7 by default, so they also sort by creation time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
