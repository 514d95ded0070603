// Package store provides a SQLite-backed journal of executed input.
//
// Every run opens a session; every leaf action a category queue performs is
// appended as an execution row. The journal is an audit trail only. Nothing
// is ever restored from it into the engine.
//
// # Ordering
//
//   - executions carry a per-session logical seq assigned by the Journal
//   - reads ORDER BY seq ASC; wall-clock "at" is informational
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
