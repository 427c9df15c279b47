// Package store keeps an optional SQLite history of validation and reconciliation
// runs, plus a registry of outbound functional groups that reconciliation can read
// expectations from.
//
// The validation core never touches the store; the CLI and the HTTP server record
// runs after the fact.
//
// # Conventions
//
//   - Run IDs are UUIDv7, so they sort by creation time.
//   - Every list query has a total ORDER BY ending in id COLLATE BINARY.
//   - Reads return empty slices, never nil.
//   - Full results are kept as JSON next to the indexed summary columns.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
