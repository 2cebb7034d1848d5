// Package store provides the SQLite evaluation journal.
//
// The journal is append-only:
//   - Runs: one row per recorded evaluation, identified by a UUIDv7 run token
//   - Snapshots: canonical JSON of every level, content-addressed by ir.SnapshotHash
//   - Levels: the snapshot exploded one row per node, for path queries
//
// Identical snapshots are stored once; runs that produce them share the row.
//
// # Ordering
//
// Runs are ordered by seq, a logical clock assigned inside the insert
// transaction. Queries never order by wall time:
//
//	ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
