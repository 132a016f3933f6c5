// Package history provides the bounded undo/redo log for supplier actions.
package history

import "github.com/nfalk/supplierdesk/backend/internal/models"

// Action describes one reversible supplier mutation together with the data
// needed to reverse or replay it. The store only records actions; applying
// an action or its inverse is the caller's job.
type Action interface {
	// Kind returns the stable discriminator used in API payloads.
	Kind() string
}

// CreateSupplier records a supplier creation. Undo deletes the supplier.
type CreateSupplier struct {
	Supplier models.Supplier `json:"supplier"`
}

// UpdateSupplier records a partial update. Before holds the prior values of
// exactly the fields After changes.
type UpdateSupplier struct {
	ID     models.UUID          `json:"id"`
	Before models.SupplierPatch `json:"before"`
	After  models.SupplierPatch `json:"after"`
}

// DeleteSupplier records a deletion. Undo restores the full record.
type DeleteSupplier struct {
	Supplier models.Supplier `json:"supplier"`
}

// ChangeStatus records a status transition.
type ChangeStatus struct {
	SupplierID models.UUID           `json:"supplier_id"`
	Before     models.SupplierStatus `json:"before"`
	After      models.SupplierStatus `json:"after"`
}

// BulkUpdate records one patch applied to several suppliers. Before holds a
// per-supplier snapshot of the overwritten fields.
type BulkUpdate struct {
	IDs    []models.UUID                        `json:"ids"`
	Before map[models.UUID]models.SupplierPatch `json:"before"`
	After  models.SupplierPatch                 `json:"after"`
}

// Kind implements Action.
func (CreateSupplier) Kind() string { return "create_supplier" }

// Kind implements Action.
func (UpdateSupplier) Kind() string { return "update_supplier" }

// Kind implements Action.
func (DeleteSupplier) Kind() string { return "delete_supplier" }

// Kind implements Action.
func (ChangeStatus) Kind() string { return "change_status" }

// Kind implements Action.
func (BulkUpdate) Kind() string { return "bulk_update" }
