// Package store provides a SQLite-backed transaction index.
//
// The store is the low-memory alternative to ledger.MemoryIndex: accepted
// records are spilled to a database file and re-fetched on demand when a
// dispute references them. Every Lookup re-reads the row, which makes
// repeated lookups idempotent by construction.
//
// The database is a per-run scratch file, not cross-run persistence; the
// CLI creates it in a temp directory and removes it when the run ends.
//
// # Database Configuration
//
//   - WAL mode: cheap reads while the single writer is active
//   - synchronous=NORMAL: scratch data, durability is not the point
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single pooled connection: SQLite allows one writer at a time
package store
