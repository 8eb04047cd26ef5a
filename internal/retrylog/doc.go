// Package retrylog persists retry records in SQLite so statistics survive
// across processing runs.
//
// The store is append-only: records are inserted by Append, which satisfies
// retry.Sink, and are read back with Records or aggregated with Statistics.
// Schema changes ship as numbered files under migrations/ and are applied in
// order when the store is opened. Writers retry briefly on SQLITE_BUSY so
// concurrent watch-mode runs can share one database file.
package retrylog
