// Package db provides CRUD repository operations for SupplierDesk data models.
package db

import (
	"database/sql"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// =====================================================
// Connection Operations
// =====================================================

const connectionColumns = `id, supplier_id, name, type, base_url, auth_method,
	host, port, username, remote_path, driver, dsn, endpoint_url, method,
	instructions, secret_encrypted, sample_payload, status, last_tested_at,
	last_error, created_at, updated_at`

func scanConnection(row interface{ Scan(...interface{}) error }) (*models.Connection, error) {
	var c models.Connection
	err := row.Scan(
		&c.ID, &c.SupplierID, &c.Name, &c.Type, &c.BaseURL, &c.AuthMethod,
		&c.Host, &c.Port, &c.Username, &c.RemotePath, &c.Driver, &c.DSN,
		&c.EndpointURL, &c.Method, &c.Instructions, &c.SecretEncrypted,
		&c.SamplePayload, &c.Status, &c.LastTestedAt, &c.LastError,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConnection inserts a new connection.
func (r *Repository) CreateConnection(c *models.Connection) error {
	now := time.Now().Unix()
	if c.ID == "" {
		c.ID = models.UUID(uuid.New())
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ConnectionUnconfigured
	}

	query := `
	INSERT INTO connections (` + connectionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, c.ID, c.SupplierID, c.Name, c.Type, c.BaseURL,
		c.AuthMethod, c.Host, c.Port, c.Username, c.RemotePath, c.Driver, c.DSN,
		c.EndpointURL, c.Method, c.Instructions, c.SecretEncrypted, c.SamplePayload,
		c.Status, c.LastTestedAt, c.LastError, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetConnection retrieves a connection by ID.
func (r *Repository) GetConnection(id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanConnection(stmt.QueryRow(id))
}

// ListConnections returns connections, optionally limited to one supplier.
func (r *Repository) ListConnections(supplierID string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections`
	var args []interface{}
	if supplierID != "" {
		query += " WHERE supplier_id = ?"
		args = append(args, supplierID)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// UpdateConnection updates a connection's configuration.
func (r *Repository) UpdateConnection(c *models.Connection) error {
	c.Touch()
	query := `
	UPDATE connections
	SET name = ?, type = ?, base_url = ?, auth_method = ?, host = ?, port = ?,
		username = ?, remote_path = ?, driver = ?, dsn = ?, endpoint_url = ?,
		method = ?, instructions = ?, secret_encrypted = ?, sample_payload = ?,
		status = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := r.db.Exec(query, c.Name, c.Type, c.BaseURL, c.AuthMethod,
		c.Host, c.Port, c.Username, c.RemotePath, c.Driver, c.DSN, c.EndpointURL,
		c.Method, c.Instructions, c.SecretEncrypted, c.SamplePayload, c.Status,
		c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateConnectionStatus records the outcome of a probe.
func (r *Repository) UpdateConnectionStatus(id string, status models.ConnectionStatus, lastError string) error {
	now := time.Now().Unix()
	query := `UPDATE connections SET status = ?, last_error = ?, last_tested_at = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.Exec(query, status, lastError, now, now, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteConnection removes a connection and, via cascade, its mappings,
// sync settings and runs.
func (r *Repository) DeleteConnection(id string) error {
	result, err := r.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// =====================================================
// FieldMapping Operations
// =====================================================

// ReplaceMappings atomically swaps the mapping set of a connection.
func (r *Repository) ReplaceMappings(connectionID string, mappings []models.FieldMapping) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM field_mappings WHERE connection_id = ?`, connectionID); err != nil {
		return err
	}

	query := `
	INSERT INTO field_mappings (id, connection_id, source_field, target_field, transform, required, position)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range mappings {
		m := &mappings[i]
		m.ID = models.UUID(uuid.New())
		m.ConnectionID = models.UUID(connectionID)
		m.Position = i
		if m.Transform == "" {
			m.Transform = models.TransformNone
		}
		if _, err := tx.Exec(query, m.ID, m.ConnectionID, m.SourceField,
			m.TargetField, m.Transform, m.Required, m.Position); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListMappings returns the mapping set of a connection in position order.
func (r *Repository) ListMappings(connectionID string) ([]models.FieldMapping, error) {
	query := `
	SELECT id, connection_id, source_field, target_field, transform, required, position
	FROM field_mappings WHERE connection_id = ? ORDER BY position
	`
	rows, err := r.db.Query(query, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.FieldMapping
	for rows.Next() {
		var m models.FieldMapping
		if err := rows.Scan(&m.ID, &m.ConnectionID, &m.SourceField, &m.TargetField,
			&m.Transform, &m.Required, &m.Position); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// =====================================================
// SyncSettings Operations
// =====================================================

// UpsertSyncSettings creates or replaces the sync settings of a connection.
func (r *Repository) UpsertSyncSettings(s *models.SyncSettings) error {
	s.UpdatedAt = time.Now().Unix()
	query := `
	INSERT INTO sync_settings (connection_id, enabled, interval_minutes, direction, policy, last_run_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(connection_id) DO UPDATE SET
		enabled = excluded.enabled,
		interval_minutes = excluded.interval_minutes,
		direction = excluded.direction,
		policy = excluded.policy,
		updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, s.ConnectionID, s.Enabled, s.IntervalMinutes,
		s.Direction, s.Policy, s.LastRunAt, s.UpdatedAt)
	return err
}

// GetSyncSettings retrieves the sync settings of a connection.
func (r *Repository) GetSyncSettings(connectionID string) (*models.SyncSettings, error) {
	query := `
	SELECT connection_id, enabled, interval_minutes, direction, policy, last_run_at, updated_at
	FROM sync_settings WHERE connection_id = ?
	`
	var s models.SyncSettings
	err := r.db.QueryRow(query, connectionID).Scan(&s.ConnectionID, &s.Enabled,
		&s.IntervalMinutes, &s.Direction, &s.Policy, &s.LastRunAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListEnabledSyncSettings returns all enabled sync settings.
func (r *Repository) ListEnabledSyncSettings() ([]*models.SyncSettings, error) {
	query := `
	SELECT connection_id, enabled, interval_minutes, direction, policy, last_run_at, updated_at
	FROM sync_settings WHERE enabled = 1
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []*models.SyncSettings
	for rows.Next() {
		var s models.SyncSettings
		if err := rows.Scan(&s.ConnectionID, &s.Enabled, &s.IntervalMinutes,
			&s.Direction, &s.Policy, &s.LastRunAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// MarkSyncRan stamps the last run time of a connection's settings. Manual
// runs can happen before any settings row exists, so a defaults row is
// inserted rather than losing the stamp.
func (r *Repository) MarkSyncRan(connectionID string, at int64) error {
	query := `
	INSERT INTO sync_settings (connection_id, last_run_at, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(connection_id) DO UPDATE SET last_run_at = excluded.last_run_at
	`
	_, err := r.db.Exec(query, connectionID, at, time.Now().Unix())
	return err
}

// =====================================================
// SyncRun Operations
// =====================================================

// CreateSyncRun records the start of a sync run.
func (r *Repository) CreateSyncRun(run *models.SyncRun) error {
	run.ID = models.UUID(uuid.New())
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().Unix()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}

	query := `
	INSERT INTO sync_runs (id, connection_id, status, started_at, finished_at, items, message)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, run.ID, run.ConnectionID, run.Status, run.StartedAt,
		run.FinishedAt, run.Items, run.Message)
	return err
}

// FinishSyncRun records the outcome of a sync run.
func (r *Repository) FinishSyncRun(id string, status models.SyncRunStatus, items int, message string) error {
	query := `UPDATE sync_runs SET status = ?, finished_at = ?, items = ?, message = ? WHERE id = ?`
	result, err := r.db.Exec(query, status, time.Now().Unix(), items, message, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSyncRuns returns the most recent runs of a connection, newest first.
func (r *Repository) ListSyncRuns(connectionID string, limit int) ([]*models.SyncRun, error) {
	query := `
	SELECT id, connection_id, status, started_at, finished_at, items, message
	FROM sync_runs WHERE connection_id = ? ORDER BY started_at DESC, id DESC LIMIT ?
	`
	rows, err := r.db.Query(query, connectionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		if err := rows.Scan(&run.ID, &run.ConnectionID, &run.Status, &run.StartedAt,
			&run.FinishedAt, &run.Items, &run.Message); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
