// Package store persists pairing runs and their published records.
//
// Two dialects are supported behind database/sql:
//   - sqlite3 (mattn/go-sqlite3): WAL mode, single writer, user_version migrations
//   - pgx (jackc/pgx/v5 stdlib): pooled connections
//
// Queries are written with ? placeholders and rebound for postgres.
//
// # Ordering
//
//   - ListRuns: ORDER BY started_at DESC, id ASC
//   - ReadRecords: ORDER BY row_num ASC, which is the order the pairing
//     core emitted (entity ascending, then entry rank)
//
// A run and its rows are written in one transaction. Rewriting an existing
// run ID is a no-op.
package store
