// Package store provides the SQLite-backed expansion ledger.
//
// The ledger is append-only and records:
//   - Runs: one row per `predgen expand --ledger` invocation, with the
//     configuration it ran under
//   - Expansions: one row per (declaration, macro) pair of a run, with the
//     original text, the generated text and the error, if any
//
// # Logical Time
//
// Rows are stamped with seq, a monotonic logical clock shared by runs and
// expansions. All reads order by seq, never by wall time, so a ledger reads
// back identically every time.
//
// # Content Hashes
//
// Inputs, outputs and configurations are hashed with SHA-256 and domain
// separation over NFC-normalised text. Replay re-expands every recorded input
// and compares output hashes to verify that expansion is deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
