// Package db provides database schema migration management.
package db

import (
	"database/sql"
	"fmt"
)

// schema is applied as a whole on startup. The database is in-memory so
// there is no versioned migration history to maintain; every process starts
// from an empty file.
const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	contact_name TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	contact_phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	rating REAL NOT NULL DEFAULT 0,
	payment_terms TEXT NOT NULL DEFAULT '',
	lead_time_days INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	is_deleted INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS purchase_orders (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	status TEXT NOT NULL DEFAULT 'draft',
	currency TEXT NOT NULL DEFAULT 'USD',
	lines TEXT NOT NULL DEFAULT '[]',
	total_amount REAL NOT NULL DEFAULT 0,
	expected_at INTEGER NOT NULL DEFAULT 0,
	received_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_supplier ON purchase_orders(supplier_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON purchase_orders(status);

CREATE TABLE IF NOT EXISTS commission_rules (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL UNIQUE REFERENCES suppliers(id),
	basis TEXT NOT NULL,
	rate REAL NOT NULL DEFAULT 0,
	tiers TEXT NOT NULL DEFAULT '[]',
	effective_from INTEGER NOT NULL DEFAULT 0,
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS connections (
	id TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	base_url TEXT NOT NULL DEFAULT '',
	auth_method TEXT NOT NULL DEFAULT 'none',
	host TEXT NOT NULL DEFAULT '',
	port INTEGER NOT NULL DEFAULT 0,
	username TEXT NOT NULL DEFAULT '',
	remote_path TEXT NOT NULL DEFAULT '',
	driver TEXT NOT NULL DEFAULT '',
	dsn TEXT NOT NULL DEFAULT '',
	endpoint_url TEXT NOT NULL DEFAULT '',
	method TEXT NOT NULL DEFAULT '',
	instructions TEXT NOT NULL DEFAULT '',
	secret_encrypted TEXT NOT NULL DEFAULT '',
	sample_payload TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'unconfigured',
	last_tested_at INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_connections_supplier ON connections(supplier_id);

CREATE TABLE IF NOT EXISTS field_mappings (
	id TEXT PRIMARY KEY,
	connection_id TEXT NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
	source_field TEXT NOT NULL,
	target_field TEXT NOT NULL,
	transform TEXT NOT NULL DEFAULT 'none',
	required INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	UNIQUE(connection_id, target_field)
);

CREATE TABLE IF NOT EXISTS sync_settings (
	connection_id TEXT PRIMARY KEY REFERENCES connections(id) ON DELETE CASCADE,
	enabled INTEGER NOT NULL DEFAULT 0,
	interval_minutes INTEGER NOT NULL DEFAULT 60,
	direction TEXT NOT NULL DEFAULT 'pull',
	policy TEXT NOT NULL DEFAULT 'remote_wins',
	last_run_at INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	connection_id TEXT NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL DEFAULT 0,
	items INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_connection ON sync_runs(connection_id, started_at);

CREATE TABLE IF NOT EXISTS change_log (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);
`

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
