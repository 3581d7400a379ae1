// Package sqlite is the default persistent backend for the clause library.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database file holds every table, and each driven port is served
// by a thin wrapper type over the shared connection:
//
//   - ClauseStore: atomic per-document writes of documents, clauses and vectors
//   - DocumentStore: document registry reads and vendor listings
//   - ReportStore: the latest assembled report per document
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.clausesense/data/clauses.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode
// with a busy timeout so readers never block the single writer.
package sqlite
