// Package database provides SQLite persistence for Bitswitch Core.
//
// It wraps database/sql with WAL-mode configuration tuned for a single
// long-running daemon, and applies embedded SQL migrations on startup.
// Switch configurations, payment bookkeeping, and pin consumption records
// all live in this database; device sessions never do (they are purely
// in-memory, process-lifetime state).
package database
