// Package db provides CRUD repository operations for SupplierDesk data models.
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// Repository provides CRUD operations for all models.
// Frequently used queries go through a prepared statement cache.
type Repository struct {
	db *sql.DB

	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// Supplier Operations
// =====================================================

const supplierColumns = `id, name, code, contact_name, contact_email, contact_phone,
	address, category, status, rating, payment_terms, lead_time_days, notes,
	is_deleted, created_at, updated_at, version`

func scanSupplier(row interface{ Scan(...interface{}) error }) (*models.Supplier, error) {
	var s models.Supplier
	err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.ContactName, &s.ContactEmail, &s.ContactPhone,
		&s.Address, &s.Category, &s.Status, &s.Rating, &s.PaymentTerms,
		&s.LeadTimeDays, &s.Notes, &s.IsDeleted, &s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSupplier inserts a new supplier. An existing ID is kept so a record
// deleted and recreated through undo/redo retains its identity.
func (r *Repository) CreateSupplier(s *models.Supplier) error {
	now := time.Now().Unix()
	if s.ID == "" {
		s.ID = models.UUID(uuid.New())
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Status == "" {
		s.Status = models.SupplierPending
	}

	query := `
	INSERT INTO suppliers (` + supplierColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, s.ID, s.Name, s.Code, s.ContactName, s.ContactEmail,
		s.ContactPhone, s.Address, s.Category, s.Status, s.Rating, s.PaymentTerms,
		s.LeadTimeDays, s.Notes, s.IsDeleted, s.CreatedAt, s.UpdatedAt, s.Version)
	return err
}

// GetSupplier retrieves a supplier by ID.
func (r *Repository) GetSupplier(id string) (*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = ? AND is_deleted = 0`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanSupplier(stmt.QueryRow(id))
}

// SupplierFilter narrows ListSuppliers results.
type SupplierFilter struct {
	Status   models.SupplierStatus
	Category string
	Search   string // case-insensitive substring of name or code
}

// ListSuppliers returns suppliers with pagination and filters, newest first.
func (r *Repository) ListSuppliers(limit, offset int, filter SupplierFilter) ([]*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE is_deleted = 0`
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		query += " AND (name LIKE ? COLLATE NOCASE OR code LIKE ? COLLATE NOCASE)"
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// CountSuppliers returns the number of suppliers matching a filter.
func (r *Repository) CountSuppliers(filter SupplierFilter) (int, error) {
	query := `SELECT COUNT(*) FROM suppliers WHERE is_deleted = 0`
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		query += " AND (name LIKE ? COLLATE NOCASE OR code LIKE ? COLLATE NOCASE)"
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// UpdateSupplier updates an existing supplier.
func (r *Repository) UpdateSupplier(s *models.Supplier) error {
	s.Touch()
	query := `
	UPDATE suppliers
	SET name = ?, code = ?, contact_name = ?, contact_email = ?, contact_phone = ?,
		address = ?, category = ?, status = ?, rating = ?, payment_terms = ?,
		lead_time_days = ?, notes = ?, updated_at = ?, version = ?
	WHERE id = ? AND is_deleted = 0
	`
	result, err := r.db.Exec(query, s.Name, s.Code, s.ContactName, s.ContactEmail,
		s.ContactPhone, s.Address, s.Category, s.Status, s.Rating, s.PaymentTerms,
		s.LeadTimeDays, s.Notes, s.UpdatedAt, s.Version, s.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSupplier soft deletes a supplier. The row is kept so undo can
// restore it with its history intact.
func (r *Repository) DeleteSupplier(id string) error {
	query := `UPDATE suppliers SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`
	result, err := r.db.Exec(query, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RestoreSupplier undoes a soft delete.
func (r *Repository) RestoreSupplier(id string) error {
	query := `UPDATE suppliers SET is_deleted = 0, updated_at = ? WHERE id = ? AND is_deleted = 1`
	result, err := r.db.Exec(query, time.Now().Unix(), id)
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
// ChangeLog Operations
// =====================================================

// CreateChangeLog appends an audit trail entry.
func (r *Repository) CreateChangeLog(log *models.ChangeLog) error {
	log.ID = models.UUID(uuid.New())
	if log.Timestamp == 0 {
		log.Timestamp = time.Now().Unix()
	}

	query := `
	INSERT INTO change_log (id, entity_type, entity_id, operation, description, timestamp)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, log.ID, log.EntityType, log.EntityID, log.Operation,
		log.Description, log.Timestamp)
	return err
}

// ListChangeLog returns the most recent audit entries, newest first.
func (r *Repository) ListChangeLog(limit int) ([]*models.ChangeLog, error) {
	query := `
	SELECT id, entity_type, entity_id, operation, description, timestamp
	FROM change_log ORDER BY timestamp DESC, rowid DESC LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ChangeLog
	for rows.Next() {
		var l models.ChangeLog
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.Operation,
			&l.Description, &l.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
