// Package db provides CRUD repository operations for SupplierDesk data models.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// =====================================================
// PurchaseOrder Operations
// =====================================================

const orderColumns = `id, number, supplier_id, status, currency, lines, total_amount,
	expected_at, received_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.PurchaseOrder, error) {
	var o models.PurchaseOrder
	var lines string
	err := row.Scan(
		&o.ID, &o.Number, &o.SupplierID, &o.Status, &o.Currency, &lines,
		&o.TotalAmount, &o.ExpectedAt, &o.ReceivedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(lines), &o.Lines); err != nil {
		return nil, fmt.Errorf("corrupt order lines for %s: %w", o.ID, err)
	}
	return &o, nil
}

// CreateOrder inserts a new purchase order, assigning a sequential PO number.
func (r *Repository) CreateOrder(o *models.PurchaseOrder) error {
	now := time.Now().Unix()
	o.ID = models.UUID(uuid.New())
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = models.OrderDraft
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	o.ComputeTotal()

	if o.Number == "" {
		var seq int
		if err := r.db.QueryRow(`SELECT COUNT(*) FROM purchase_orders`).Scan(&seq); err != nil {
			return err
		}
		o.Number = fmt.Sprintf("PO-%05d", seq+1)
	}

	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO purchase_orders (` + orderColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, o.ID, o.Number, o.SupplierID, o.Status, o.Currency,
		string(lines), o.TotalAmount, o.ExpectedAt, o.ReceivedAt, o.CreatedAt, o.UpdatedAt)
	return err
}

// GetOrder retrieves a purchase order by ID.
func (r *Repository) GetOrder(id string) (*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanOrder(stmt.QueryRow(id))
}

// ListOrders returns purchase orders filtered by supplier and status,
// newest first.
func (r *Repository) ListOrders(supplierID string, status models.OrderStatus, limit, offset int) ([]*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE 1=1`
	var args []interface{}

	if supplierID != "" {
		query += " AND supplier_id = ?"
		args = append(args, supplierID)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, number DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListOrdersSince returns all orders created at or after a unix timestamp.
// A zero since returns everything. Used by the reporting aggregations.
func (r *Repository) ListOrdersSince(since int64) ([]*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE created_at >= ? ORDER BY created_at`
	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order to the given status. Moving to received
// also stamps the received date.
func (r *Repository) UpdateOrderStatus(id string, status models.OrderStatus) error {
	now := time.Now().Unix()

	var query string
	var args []interface{}
	if status == models.OrderReceived {
		query = `UPDATE purchase_orders SET status = ?, received_at = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, now, now, id}
	} else {
		query = `UPDATE purchase_orders SET status = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, now, id}
	}

	result, err := r.db.Exec(query, args...)
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
// CommissionRule Operations
// =====================================================

const commissionColumns = `id, supplier_id, basis, rate, tiers, effective_from,
	enabled, created_at, updated_at`

func scanCommissionRule(row interface{ Scan(...interface{}) error }) (*models.CommissionRule, error) {
	var c models.CommissionRule
	var tiers string
	err := row.Scan(&c.ID, &c.SupplierID, &c.Basis, &c.Rate, &tiers,
		&c.EffectiveFrom, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tiers), &c.Tiers); err != nil {
		return nil, fmt.Errorf("corrupt commission tiers for %s: %w", c.ID, err)
	}
	return &c, nil
}

// UpsertCommissionRule creates or replaces the commission rule for a
// supplier. There is at most one rule per supplier.
func (r *Repository) UpsertCommissionRule(c *models.CommissionRule) error {
	now := time.Now().Unix()

	tiers, err := json.Marshal(c.Tiers)
	if err != nil {
		return err
	}

	existing, err := r.GetCommissionRule(string(c.SupplierID))
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if existing == nil {
		c.ID = models.UUID(uuid.New())
		c.CreatedAt = now
		c.UpdatedAt = now
		query := `
		INSERT INTO commission_rules (` + commissionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = r.db.Exec(query, c.ID, c.SupplierID, c.Basis, c.Rate, string(tiers),
			c.EffectiveFrom, c.Enabled, c.CreatedAt, c.UpdatedAt)
		return err
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = now
	query := `
	UPDATE commission_rules
	SET basis = ?, rate = ?, tiers = ?, effective_from = ?, enabled = ?, updated_at = ?
	WHERE supplier_id = ?
	`
	_, err = r.db.Exec(query, c.Basis, c.Rate, string(tiers), c.EffectiveFrom,
		c.Enabled, c.UpdatedAt, c.SupplierID)
	return err
}

// GetCommissionRule retrieves the commission rule for a supplier.
func (r *Repository) GetCommissionRule(supplierID string) (*models.CommissionRule, error) {
	query := `SELECT ` + commissionColumns + ` FROM commission_rules WHERE supplier_id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanCommissionRule(stmt.QueryRow(supplierID))
}

// ListCommissionRules returns all commission rules.
func (r *Repository) ListCommissionRules() ([]*models.CommissionRule, error) {
	query := `SELECT ` + commissionColumns + ` FROM commission_rules ORDER BY created_at`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.CommissionRule
	for rows.Next() {
		c, err := scanCommissionRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, c)
	}
	return rules, rows.Err()
}
