// Package store provides SQLite-backed run history for the packaging
// harness.
//
// Every `slsreq test` invocation opens one run. A run holds:
//   - Cases: one row per scenario with its verdict, failures and listing
//   - Commands: every external command a case ran, in order
//
// Cases and commands are ordered by their seq columns, never by
// timestamps. Failures and listings are stored as canonical JSON arrays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
