// Package db provides database connection management and operations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultDSN keeps all state in memory; the dataset is seeded on startup and
// discarded on shutdown. Durability is explicitly not a goal of this service.
const DefaultDSN = ":memory:"

// DB wraps sql.DB with SupplierDesk-specific configuration.
type DB struct {
	*sql.DB
}

// Open opens the SQLite database behind the repository layer.
// Foreign keys are enabled and the pool is pinned to a single connection:
// SQLite has one writer, and with the in-memory DSN every connection would
// otherwise see its own empty database.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
