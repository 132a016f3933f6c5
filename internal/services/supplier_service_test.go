// Package services tests for the orchestration layer.
package services

import (
	"testing"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/history"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// =====================================================
// Test Helpers
// =====================================================

func setupTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database.DB); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db.NewRepository(database.DB)
}

func setupSupplierService(t *testing.T) *SupplierService {
	t.Helper()
	return NewSupplierService(setupTestRepo(t), history.NewStore(0))
}

func newSupplier(code string) *models.Supplier {
	return &models.Supplier{
		Name:   "Supplier " + code,
		Code:   code,
		Status: models.SupplierActive,
	}
}

func strPtr(s string) *string { return &s }

// =====================================================
// Supplier CRUD
// =====================================================

func TestCreateSupplier(t *testing.T) {
	svc := setupSupplierService(t)

	sup, err := svc.Create(newSupplier("NWC"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sup.ID == "" {
		t.Error("Create should assign an id")
	}

	got, err := svc.Get(sup.ID.String())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Code != "NWC" {
		t.Errorf("Expected code NWC, got %q", got.Code)
	}

	if desc, ok := svc.History().UndoDescription(); !ok || desc != "Created Supplier NWC" {
		t.Errorf("Create should be undoable, got %q %v", desc, ok)
	}
}

func TestCreateSupplierValidation(t *testing.T) {
	svc := setupSupplierService(t)

	cases := []struct {
		name string
		sup  *models.Supplier
	}{
		{"missing name", &models.Supplier{Code: "X"}},
		{"missing code", &models.Supplier{Name: "X"}},
		{"bad status", &models.Supplier{Name: "X", Code: "X", Status: "zombie"}},
		{"bad rating", &models.Supplier{Name: "X", Code: "X", Status: models.SupplierActive, Rating: 9}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(tc.sup); !errors.Is(err, errors.ErrSupplierInvalid) {
			t.Errorf("%s: expected ErrSupplierInvalid, got %v", tc.name, err)
		}
	}
}

func TestCreateSupplierDuplicateCode(t *testing.T) {
	svc := setupSupplierService(t)
	if _, err := svc.Create(newSupplier("DUP")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(newSupplier("DUP")); !errors.Is(err, errors.ErrSupplierCodeDup) {
		t.Errorf("Expected ErrSupplierCodeDup, got %v", err)
	}
}

func TestGetSupplierNotFound(t *testing.T) {
	svc := setupSupplierService(t)
	if _, err := svc.Get("no-such-id"); !errors.Is(err, errors.ErrSupplierNotFound) {
		t.Errorf("Expected ErrSupplierNotFound, got %v", err)
	}
}

func TestUpdateSupplier(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("UPD"))

	rating := 4.5
	updated, err := svc.Update(sup.ID.String(), models.SupplierPatch{
		Name:   strPtr("Renamed"),
		Rating: &rating,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Renamed" || updated.Rating != 4.5 {
		t.Errorf("Patch not applied: %+v", updated)
	}
	if updated.Version != sup.Version+1 {
		t.Errorf("Version should bump, got %d", updated.Version)
	}
}

func TestUpdateSupplierEmptyPatch(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("EMP"))
	if _, err := svc.Update(sup.ID.String(), models.SupplierPatch{}); !errors.Is(err, errors.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for empty patch, got %v", err)
	}
}

func TestDeleteSupplier(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("DEL"))

	if err := svc.Delete(sup.ID.String()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(sup.ID.String()); !errors.Is(err, errors.ErrSupplierNotFound) {
		t.Errorf("Deleted supplier should not be found, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("STA"))

	out, err := svc.ChangeStatus(sup.ID.String(), models.SupplierSuspended)
	if err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if out.Status != models.SupplierSuspended {
		t.Errorf("Expected suspended, got %s", out.Status)
	}

	// Same-status change records nothing.
	before := svc.History().Len()
	if _, err := svc.ChangeStatus(sup.ID.String(), models.SupplierSuspended); err != nil {
		t.Fatalf("No-op ChangeStatus failed: %v", err)
	}
	if svc.History().Len() != before {
		t.Error("No-op status change should not be recorded")
	}
}

func TestBulkUpdate(t *testing.T) {
	svc := setupSupplierService(t)
	a, _ := svc.Create(newSupplier("BLK1"))
	b, _ := svc.Create(newSupplier("BLK2"))

	category := "metals"
	out, err := svc.BulkUpdate([]string{a.ID.String(), b.ID.String()}, models.SupplierPatch{Category: &category})
	if err != nil {
		t.Fatalf("BulkUpdate failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 suppliers, got %d", len(out))
	}
	for _, sup := range out {
		if sup.Category != "metals" {
			t.Errorf("Category not applied to %s", sup.Code)
		}
	}
	if desc, _ := svc.History().UndoDescription(); desc != "Updated 2 suppliers" {
		t.Errorf("Bulk update should be one history entry, got %q", desc)
	}
}

func TestBulkUpdateMissingSupplierFailsBeforeWrites(t *testing.T) {
	svc := setupSupplierService(t)
	a, _ := svc.Create(newSupplier("SAFE"))

	notes := "touched"
	_, err := svc.BulkUpdate([]string{a.ID.String(), "missing"}, models.SupplierPatch{Notes: &notes})
	if !errors.Is(err, errors.ErrSupplierNotFound) {
		t.Fatalf("Expected ErrSupplierNotFound, got %v", err)
	}
	got, _ := svc.Get(a.ID.String())
	if got.Notes == "touched" {
		t.Error("Failed bulk update must not write anything")
	}
}

func TestBulkUpdateMidBatchFailureRollsBack(t *testing.T) {
	svc := setupSupplierService(t)
	a, _ := svc.Create(newSupplier("AAA"))
	b, _ := svc.Create(newSupplier("BBB"))
	svc.History().Clear()

	// The shared code lands on the first supplier, then collides with the
	// unique index when the second supplier tries to take it too.
	_, err := svc.BulkUpdate(
		[]string{a.ID.String(), b.ID.String()},
		models.SupplierPatch{Code: strPtr("CLASH")},
	)
	if err == nil {
		t.Fatal("Expected bulk update to fail on the code collision")
	}

	got, _ := svc.Get(a.ID.String())
	if got.Code != "AAA" {
		t.Errorf("First supplier should be restored to AAA, got %q", got.Code)
	}
	if svc.History().CanUndo() {
		t.Error("Failed bulk update must not record a history entry")
	}
}

func TestListSuppliersFilterAndCount(t *testing.T) {
	svc := setupSupplierService(t)
	svc.Create(newSupplier("LSA"))
	svc.Create(newSupplier("LSB"))
	sup, _ := svc.Create(newSupplier("LSC"))
	svc.ChangeStatus(sup.ID.String(), models.SupplierInactive)

	active, total, err := svc.List(10, 0, db.SupplierFilter{Status: models.SupplierActive})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(active) != 2 {
		t.Errorf("Expected 2 active suppliers, got %d (total %d)", len(active), total)
	}
}

// =====================================================
// Undo / Redo
// =====================================================

func TestUndoCreate(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("UNC"))

	desc, err := svc.Undo()
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if desc != "Created Supplier UNC" {
		t.Errorf("Unexpected description %q", desc)
	}
	if _, err := svc.Get(sup.ID.String()); !errors.Is(err, errors.ErrSupplierNotFound) {
		t.Error("Undoing a create should remove the supplier")
	}

	if _, err := svc.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	got, err := svc.Get(sup.ID.String())
	if err != nil {
		t.Fatalf("Redo should restore the supplier: %v", err)
	}
	if got.ID != sup.ID {
		t.Error("Redo should restore the same record")
	}
}

func TestUndoUpdateRestoresOnlyPatchedFields(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("UNU"))
	svc.Update(sup.ID.String(), models.SupplierPatch{Notes: strPtr("keep me")})
	svc.Update(sup.ID.String(), models.SupplierPatch{Name: strPtr("Renamed")})

	if _, err := svc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	got, _ := svc.Get(sup.ID.String())
	if got.Name != "Supplier UNU" {
		t.Errorf("Name should revert, got %q", got.Name)
	}
	if got.Notes != "keep me" {
		t.Errorf("Unrelated field should survive the undo, got %q", got.Notes)
	}
}

func TestUndoDeleteRestoresRecord(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("UND"))
	svc.Delete(sup.ID.String())

	if _, err := svc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	got, err := svc.Get(sup.ID.String())
	if err != nil {
		t.Fatalf("Undoing a delete should restore the supplier: %v", err)
	}
	if got.Code != "UND" {
		t.Errorf("Restored record mismatch: %+v", got)
	}
}

func TestUndoBulkUpdate(t *testing.T) {
	svc := setupSupplierService(t)
	a, _ := svc.Create(newSupplier("UBA"))
	b, _ := svc.Create(newSupplier("UBB"))
	svc.Update(a.ID.String(), models.SupplierPatch{Category: strPtr("alpha")})

	category := "bulk"
	svc.BulkUpdate([]string{a.ID.String(), b.ID.String()}, models.SupplierPatch{Category: &category})

	if _, err := svc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	gotA, _ := svc.Get(a.ID.String())
	gotB, _ := svc.Get(b.ID.String())
	if gotA.Category != "alpha" {
		t.Errorf("Per-supplier before value should be restored, got %q", gotA.Category)
	}
	if gotB.Category != "" {
		t.Errorf("Expected empty category restored, got %q", gotB.Category)
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	svc := setupSupplierService(t)
	if _, err := svc.Undo(); !errors.Is(err, errors.ErrNothingToUndo) {
		t.Errorf("Expected ErrNothingToUndo, got %v", err)
	}
	if _, err := svc.Redo(); !errors.Is(err, errors.ErrNothingToRedo) {
		t.Errorf("Expected ErrNothingToRedo, got %v", err)
	}
}

func TestNewMutationDiscardsRedo(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("DRD"))
	svc.Update(sup.ID.String(), models.SupplierPatch{Name: strPtr("One")})
	svc.Undo()

	svc.Update(sup.ID.String(), models.SupplierPatch{Name: strPtr("Two")})
	if _, err := svc.Redo(); !errors.Is(err, errors.ErrNothingToRedo) {
		t.Errorf("New mutation should discard the redo branch, got %v", err)
	}
	got, _ := svc.Get(sup.ID.String())
	if got.Name != "Two" {
		t.Errorf("Expected name Two, got %q", got.Name)
	}
}

func TestUndoChangeStatus(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("UST"))
	svc.ChangeStatus(sup.ID.String(), models.SupplierSuspended)

	if _, err := svc.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	got, _ := svc.Get(sup.ID.String())
	if got.Status != models.SupplierActive {
		t.Errorf("Status should revert to active, got %s", got.Status)
	}
}

func TestChangeLogRecordsMutations(t *testing.T) {
	svc := setupSupplierService(t)
	sup, _ := svc.Create(newSupplier("LOG"))
	svc.Update(sup.ID.String(), models.SupplierPatch{Notes: strPtr("x")})
	svc.Undo()

	entries, err := svc.ChangeLog(10)
	if err != nil {
		t.Fatalf("ChangeLog failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 audit entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Operation != "undo" {
		t.Errorf("Expected undo first, got %q", entries[0].Operation)
	}
}

func TestEventsEmitted(t *testing.T) {
	svc := setupSupplierService(t)
	var events []string
	svc.SetEventHandler(func(event string, payload interface{}) {
		events = append(events, event)
	})

	sup, _ := svc.Create(newSupplier("EVT"))
	svc.Update(sup.ID.String(), models.SupplierPatch{Notes: strPtr("x")})
	svc.Delete(sup.ID.String())
	svc.Undo()

	want := []string{"supplier.created", "supplier.updated", "supplier.deleted", "history.undone"}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), events)
	}
	for i, e := range want {
		if events[i] != e {
			t.Errorf("Event %d: expected %s, got %s", i, e, events[i])
		}
	}
}
