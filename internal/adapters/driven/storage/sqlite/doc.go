// Package sqlite provides a SQLite-based implementation of the catsync store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements both persistence ports
// through a single database connection:
//
//   - ItemStore: the known item set with its timestamps and flags
//   - CatalogStateStore: the last catalog snapshot and its refresh time
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.catsync/data/catsync.db
//
// Timestamps are stored as RFC3339Nano text in UTC. A NULL column is the
// zero time.
package sqlite
