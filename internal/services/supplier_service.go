// Package services provides the orchestration layer between transport and
// storage: supplier lifecycle, purchase orders, sync, and reporting.
package services

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/history"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// EventFunc receives change notifications for WebSocket broadcast.
type EventFunc func(event string, payload interface{})

// SupplierService coordinates supplier mutations. Every mutation goes
// through here so it can be recorded in the history store and the change
// log, and announced to connected clients.
type SupplierService struct {
	repo    *db.Repository
	history *history.Store

	// Event callback for WebSocket notifications (optional).
	onEvent EventFunc

	// Serializes mutate-then-record and undo/redo so the database and the
	// history cursor cannot drift apart under concurrent requests.
	mu sync.Mutex
}

// NewSupplierService creates a SupplierService. The history store is
// injected so callers control its capacity and lifetime.
func NewSupplierService(repo *db.Repository, hist *history.Store) *SupplierService {
	return &SupplierService{
		repo:    repo,
		history: hist,
	}
}

// SetEventHandler registers the callback invoked after each successful
// mutation. Must be called before the service handles requests.
func (s *SupplierService) SetEventHandler(fn EventFunc) {
	s.onEvent = fn
}

// History exposes the undo/redo store for read-only transport endpoints.
func (s *SupplierService) History() *history.Store {
	return s.history
}

func (s *SupplierService) emit(event string, payload interface{}) {
	if s.onEvent != nil {
		s.onEvent(event, payload)
	}
}

func (s *SupplierService) audit(entityID models.UUID, operation, description string) {
	entry := &models.ChangeLog{
		ID:          models.UUID(uuid.New()),
		EntityType:  "supplier",
		EntityID:    entityID,
		Operation:   operation,
		Description: description,
		Timestamp:   time.Now().Unix(),
	}
	if err := s.repo.CreateChangeLog(entry); err != nil {
		logging.Warn("Failed to write change log entry", map[string]interface{}{
			"entity_id": entityID.String(),
			"operation": operation,
		})
	}
}

// validateSupplier checks the fields a client can set.
func validateSupplier(sup *models.Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return errors.New(errors.ErrSupplierInvalid, "supplier name is required")
	}
	if strings.TrimSpace(sup.Code) == "" {
		return errors.New(errors.ErrSupplierInvalid, "supplier code is required")
	}
	if !sup.Status.Valid() {
		return errors.New(errors.ErrSupplierInvalid, fmt.Sprintf("unknown status %q", sup.Status))
	}
	if sup.Rating < 0 || sup.Rating > 5 {
		return errors.New(errors.ErrSupplierInvalid, "rating must be between 0 and 5")
	}
	if sup.LeadTimeDays < 0 {
		return errors.New(errors.ErrSupplierInvalid, "lead time cannot be negative")
	}
	return nil
}

// Create validates and stores a new supplier and records the action.
func (s *SupplierService) Create(sup *models.Supplier) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sup.Status == "" {
		sup.Status = models.SupplierActive
	}
	if err := validateSupplier(sup); err != nil {
		return nil, err
	}
	if sup.ID == "" {
		sup.ID = models.UUID(uuid.New())
	}

	if err := s.repo.CreateSupplier(sup); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, errors.Wrap(errors.ErrSupplierCodeDup, fmt.Sprintf("supplier code %q already in use", sup.Code), err)
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create supplier", err)
	}

	desc := fmt.Sprintf("Created %s", sup.Name)
	s.history.Record(history.CreateSupplier{Supplier: *sup}, desc)
	s.audit(sup.ID, "create", desc)
	s.emit("supplier.created", sup)
	logging.Info("Supplier created", map[string]interface{}{"id": sup.ID.String(), "code": sup.Code})
	return sup, nil
}

// Get returns a single supplier, or ErrSupplierNotFound.
func (s *SupplierService) Get(id string) (*models.Supplier, error) {
	sup, err := s.repo.GetSupplier(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s not found", id))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load supplier", err)
	}
	return sup, nil
}

// List returns a page of suppliers plus the total count for the filter.
func (s *SupplierService) List(limit, offset int, filter db.SupplierFilter) ([]*models.Supplier, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	suppliers, err := s.repo.ListSuppliers(limit, offset, filter)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to list suppliers", err)
	}
	total, err := s.repo.CountSuppliers(filter)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabase, "failed to count suppliers", err)
	}
	return suppliers, total, nil
}

// Update applies a partial update and records it with before-values so it
// can be undone.
func (s *SupplierService) Update(id string, patch models.SupplierPatch) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.IsZero() {
		return nil, errors.New(errors.ErrInvalid, "update contains no fields")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, errors.New(errors.ErrSupplierInvalid, fmt.Sprintf("unknown status %q", *patch.Status))
	}

	sup, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	before := patch.Snapshot(sup)
	patch.Apply(sup)
	if err := validateSupplier(sup); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSupplier(sup); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update supplier", err)
	}

	desc := fmt.Sprintf("Updated %s", sup.Name)
	s.history.Record(history.UpdateSupplier{ID: sup.ID, Before: before, After: patch}, desc)
	s.audit(sup.ID, "update", desc)
	s.emit("supplier.updated", sup)
	return sup, nil
}

// ChangeStatus moves a supplier to a new lifecycle status.
func (s *SupplierService) ChangeStatus(id string, status models.SupplierStatus) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !status.Valid() {
		return nil, errors.New(errors.ErrSupplierInvalid, fmt.Sprintf("unknown status %q", status))
	}
	sup, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sup.Status == status {
		return sup, nil
	}

	before := sup.Status
	sup.Status = status
	if err := s.repo.UpdateSupplier(sup); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to change supplier status", err)
	}

	desc := fmt.Sprintf("Changed %s status to %s", sup.Name, status)
	s.history.Record(history.ChangeStatus{SupplierID: sup.ID, Before: before, After: status}, desc)
	s.audit(sup.ID, "status", desc)
	s.emit("supplier.updated", sup)
	return sup, nil
}

// Delete soft-deletes a supplier. The full record is kept in the history
// action so the deletion can be undone.
func (s *SupplierService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSupplier(id); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete supplier", err)
	}

	desc := fmt.Sprintf("Deleted %s", sup.Name)
	s.history.Record(history.DeleteSupplier{Supplier: *sup}, desc)
	s.audit(sup.ID, "delete", desc)
	s.emit("supplier.deleted", map[string]string{"id": id})
	return nil
}

// BulkUpdate applies one patch to several suppliers as a single history
// entry, so one undo reverses the whole batch.
func (s *SupplierService) BulkUpdate(ids []string, patch models.SupplierPatch) ([]*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return nil, errors.New(errors.ErrInvalid, "no supplier ids given")
	}
	if patch.IsZero() {
		return nil, errors.New(errors.ErrInvalid, "update contains no fields")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, errors.New(errors.ErrSupplierInvalid, fmt.Sprintf("unknown status %q", *patch.Status))
	}

	// Load everything first so a missing id fails the batch before any write.
	suppliers := make([]*models.Supplier, 0, len(ids))
	for _, id := range ids {
		sup, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}

	action := history.BulkUpdate{
		IDs:    make([]models.UUID, 0, len(ids)),
		Before: make(map[models.UUID]models.SupplierPatch, len(ids)),
		After:  patch,
	}
	for i, sup := range suppliers {
		action.Before[sup.ID] = patch.Snapshot(sup)
		patch.Apply(sup)
		if err := s.repo.UpdateSupplier(sup); err != nil {
			// The batch is all-or-nothing: put the already-written
			// suppliers back so nothing half-applied is left outside the
			// history.
			s.rollbackBulk(suppliers[:i], action.Before)
			return nil, errors.Wrap(errors.ErrDatabase, "failed to update supplier", err)
		}
		action.IDs = append(action.IDs, sup.ID)
		s.emit("supplier.updated", sup)
	}

	desc := fmt.Sprintf("Updated %d suppliers", len(suppliers))
	s.history.Record(action, desc)
	s.audit("", "bulk_update", desc)
	return suppliers, nil
}

// rollbackBulk restores suppliers a failed batch already wrote.
func (s *SupplierService) rollbackBulk(applied []*models.Supplier, before map[models.UUID]models.SupplierPatch) {
	for _, sup := range applied {
		restore := before[sup.ID]
		restore.Apply(sup)
		if err := s.repo.UpdateSupplier(sup); err != nil {
			logging.Error("Failed to roll back bulk update", err, map[string]interface{}{
				"id": sup.ID.String(),
			})
			continue
		}
		s.emit("supplier.updated", sup)
	}
}

// Undo reverses the most recent recorded action and returns its
// description. Returns ErrNothingToUndo when the cursor is at the start.
func (s *SupplierService) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, _ := s.history.UndoDescription()
	action, ok := s.history.Undo()
	if !ok {
		return "", errors.New(errors.ErrNothingToUndo, "nothing to undo")
	}
	if err := s.applyInverse(action); err != nil {
		// Put the cursor back so history still matches the database.
		s.history.Redo()
		return "", err
	}
	s.audit("", "undo", desc)
	s.emit("history.undone", map[string]string{"description": desc})
	return desc, nil
}

// Redo re-applies the most recently undone action and returns its
// description. Returns ErrNothingToRedo when nothing was undone.
func (s *SupplierService) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, _ := s.history.RedoDescription()
	action, ok := s.history.Redo()
	if !ok {
		return "", errors.New(errors.ErrNothingToRedo, "nothing to redo")
	}
	if err := s.applyForward(action); err != nil {
		s.history.Undo()
		return "", err
	}
	s.audit("", "redo", desc)
	s.emit("history.redone", map[string]string{"description": desc})
	return desc, nil
}

// applyInverse reverses one action against the database.
func (s *SupplierService) applyInverse(action history.Action) error {
	switch a := action.(type) {
	case history.CreateSupplier:
		return s.repo.DeleteSupplier(a.Supplier.ID.String())
	case history.UpdateSupplier:
		return s.applyPatch(a.ID, a.Before)
	case history.DeleteSupplier:
		return s.repo.RestoreSupplier(a.Supplier.ID.String())
	case history.ChangeStatus:
		st := a.Before
		return s.applyPatch(a.SupplierID, models.SupplierPatch{Status: &st})
	case history.BulkUpdate:
		for _, id := range a.IDs {
			if err := s.applyPatch(id, a.Before[id]); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.ErrInternal, fmt.Sprintf("unknown action kind %q", action.Kind()))
}

// applyForward replays one action against the database.
func (s *SupplierService) applyForward(action history.Action) error {
	switch a := action.(type) {
	case history.CreateSupplier:
		// Undoing a create soft-deletes the record, so redo restores it.
		return s.repo.RestoreSupplier(a.Supplier.ID.String())
	case history.UpdateSupplier:
		return s.applyPatch(a.ID, a.After)
	case history.DeleteSupplier:
		return s.repo.DeleteSupplier(a.Supplier.ID.String())
	case history.ChangeStatus:
		st := a.After
		return s.applyPatch(a.SupplierID, models.SupplierPatch{Status: &st})
	case history.BulkUpdate:
		for _, id := range a.IDs {
			if err := s.applyPatch(id, a.After); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.ErrInternal, fmt.Sprintf("unknown action kind %q", action.Kind()))
}

func (s *SupplierService) applyPatch(id models.UUID, patch models.SupplierPatch) error {
	sup, err := s.repo.GetSupplier(id.String())
	if err != nil {
		return errors.Wrap(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s no longer exists", id), err)
	}
	patch.Apply(sup)
	if err := s.repo.UpdateSupplier(sup); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to apply history patch", err)
	}
	s.emit("supplier.updated", sup)
	return nil
}

// ChangeLog returns recent audit entries, newest first.
func (s *SupplierService) ChangeLog(limit int) ([]*models.ChangeLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.repo.ListChangeLog(limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list change log", err)
	}
	return entries, nil
}
