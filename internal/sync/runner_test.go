// Package sync tests for the run executor and scheduler.
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
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

// createSyncFixture stores a supplier and a connection with complete
// mappings and a sample payload, and returns the connection id.
func createSyncFixture(t *testing.T, repo *db.Repository, payload string) string {
	t.Helper()

	sup := &models.Supplier{
		ID:     models.UUID(uuid.New()),
		Name:   "Fixture Supplier",
		Code:   "FIX",
		Status: models.SupplierActive,
	}
	if err := repo.CreateSupplier(sup); err != nil {
		t.Fatalf("Failed to create supplier: %v", err)
	}

	conn := &models.Connection{
		ID:            models.UUID(uuid.New()),
		SupplierID:    sup.ID,
		Name:          "Fixture Feed",
		Type:          models.ConnectionAPI,
		BaseURL:       "https://feed.example/v1",
		AuthMethod:    models.AuthNone,
		SamplePayload: payload,
	}
	if err := repo.CreateConnection(conn); err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}

	mappings := []models.FieldMapping{
		{SourceField: "vendor", TargetField: "supplier_code", Transform: models.TransformUppercase, Required: true},
		{SourceField: "item", TargetField: "sku", Transform: models.TransformTrim, Required: true},
		{SourceField: "qty", TargetField: "quantity", Transform: models.TransformNumber, Required: true},
	}
	if err := repo.ReplaceMappings(conn.ID.String(), mappings); err != nil {
		t.Fatalf("Failed to save mappings: %v", err)
	}
	return conn.ID.String()
}

// =====================================================
// Runner Tests
// =====================================================

func TestRunSuccess(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[
		{"vendor": "fix", "item": " SKU-1 ", "qty": "3"},
		{"vendor": "fix", "item": "SKU-2", "qty": 7}
	]`)

	runner := NewRunner(repo, nil)
	run, err := runner.Run(context.Background(), connID)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Status != models.RunSucceeded {
		t.Errorf("Expected succeeded, got %s", run.Status)
	}
	if run.Items != 2 {
		t.Errorf("Expected 2 items, got %d", run.Items)
	}
	if run.FinishedAt == 0 {
		t.Error("FinishedAt should be set")
	}

	// Last run time is stamped so the scheduler backs off.
	settings := &models.SyncSettings{
		ConnectionID:    models.UUID(connID),
		Enabled:         true,
		IntervalMinutes: 60,
		Direction:       models.SyncPull,
		Policy:          models.RemoteWins,
	}
	if err := repo.UpsertSyncSettings(settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	saved, err := repo.GetSyncSettings(connID)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if saved.LastRunAt == 0 {
		t.Error("LastRunAt should survive the settings upsert")
	}
}

func TestRunFailsWhenProbeFails(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix", "item": "SKU-1", "qty": "3"}]`)

	runner := NewRunner(repo, func(ctx context.Context, conn *models.Connection) error {
		return errors.New(errors.ErrConnectionProbe, "endpoint unreachable")
	})
	run, err := runner.Run(context.Background(), connID)
	if !errors.Is(err, errors.ErrSyncFailed) {
		t.Fatalf("Expected ErrSyncFailed for unreachable connection, got %v", err)
	}
	if run == nil || run.Status != models.RunFailed {
		t.Fatalf("Expected a failed run record, got %+v", run)
	}
	if run.Items != 0 {
		t.Errorf("Unreachable connection must not map records, got %d items", run.Items)
	}
}

func TestRunSkipsProbeForManualConnection(t *testing.T) {
	repo := setupTestRepo(t)

	sup := &models.Supplier{
		ID:     models.UUID(uuid.New()),
		Name:   "Manual Supplier",
		Code:   "MAN",
		Status: models.SupplierActive,
	}
	if err := repo.CreateSupplier(sup); err != nil {
		t.Fatalf("Failed to create supplier: %v", err)
	}
	conn := &models.Connection{
		ID:            models.UUID(uuid.New()),
		SupplierID:    sup.ID,
		Name:          "Paper Feed",
		Type:          models.ConnectionManual,
		Instructions:  "Imported from the monthly spreadsheet",
		SamplePayload: `[{"vendor": "man", "item": "SKU-9", "qty": "1"}]`,
	}
	if err := repo.CreateConnection(conn); err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}
	mappings := []models.FieldMapping{
		{SourceField: "vendor", TargetField: "supplier_code", Transform: models.TransformNone, Required: true},
		{SourceField: "item", TargetField: "sku", Transform: models.TransformNone, Required: true},
		{SourceField: "qty", TargetField: "quantity", Transform: models.TransformNumber, Required: true},
	}
	if err := repo.ReplaceMappings(conn.ID.String(), mappings); err != nil {
		t.Fatalf("Failed to save mappings: %v", err)
	}

	runner := NewRunner(repo, func(ctx context.Context, c *models.Connection) error {
		t.Error("Probe must not run for manual connections")
		return nil
	})
	run, err := runner.Run(context.Background(), conn.ID.String())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Status != models.RunSucceeded {
		t.Errorf("Expected succeeded run, got %s", run.Status)
	}
}

func TestRunFailsOnBadRecord(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[
		{"vendor": "fix", "item": "SKU-1", "qty": "not-a-number"}
	]`)

	runner := NewRunner(repo, nil)
	run, err := runner.Run(context.Background(), connID)
	if !errors.Is(err, errors.ErrSyncFailed) {
		t.Fatalf("Expected ErrSyncFailed, got %v", err)
	}
	if run == nil || run.Status != models.RunFailed {
		t.Fatalf("Expected a failed run record, got %+v", run)
	}
	if run.Items != 0 {
		t.Errorf("No records should count as processed, got %d", run.Items)
	}
}

func TestRunFailsOnMissingRequiredField(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[
		{"vendor": "fix", "item": "SKU-1"}
	]`)

	runner := NewRunner(repo, nil)
	run, err := runner.Run(context.Background(), connID)
	if !errors.Is(err, errors.ErrSyncFailed) {
		t.Fatalf("Expected ErrSyncFailed, got %v", err)
	}
	if run.Message == "" {
		t.Error("Failed run should carry a message")
	}
}

func TestRunFailsWithIncompleteMappings(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix"}]`)

	// Drop the quantity mapping so the required set is incomplete.
	mappings := []models.FieldMapping{
		{SourceField: "vendor", TargetField: "supplier_code", Required: true},
		{SourceField: "item", TargetField: "sku", Required: true},
	}
	if err := repo.ReplaceMappings(connID, mappings); err != nil {
		t.Fatalf("Failed to replace mappings: %v", err)
	}

	runner := NewRunner(repo, nil)
	if _, err := runner.Run(context.Background(), connID); !errors.Is(err, errors.ErrMappingIncomplete) {
		t.Errorf("Expected ErrMappingIncomplete, got %v", err)
	}
}

func TestRunFailsWithoutSamplePayload(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, "")

	runner := NewRunner(repo, nil)
	if _, err := runner.Run(context.Background(), connID); !errors.Is(err, errors.ErrSyncFailed) {
		t.Errorf("Expected ErrSyncFailed, got %v", err)
	}
}

func TestRunUnknownConnection(t *testing.T) {
	repo := setupTestRepo(t)
	runner := NewRunner(repo, nil)
	if _, err := runner.Run(context.Background(), uuid.New()); !errors.Is(err, errors.ErrConnectionNotFound) {
		t.Errorf("Expected ErrConnectionNotFound, got %v", err)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix", "item": "SKU-1", "qty": "1"}]`)

	runner := NewRunner(repo, nil)
	for i := 0; i < 3; i++ {
		if _, err := runner.Run(context.Background(), connID); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}
	runs, err := repo.ListSyncRuns(connID, 10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(runs))
	}
}

func TestRunEmitsEvents(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix", "item": "SKU-1", "qty": "1"}]`)

	var events []string
	runner := NewRunner(repo, nil)
	runner.SetEventHandler(func(event string, payload interface{}) {
		events = append(events, event)
	})
	if _, err := runner.Run(context.Background(), connID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(events) != 2 || events[0] != "sync.started" || events[1] != "sync.finished" {
		t.Errorf("Expected started+finished events, got %v", events)
	}
}

func TestDecodeSamplePayloadStringifiesValues(t *testing.T) {
	records, err := decodeSamplePayload(`[{"a": "x", "b": 2.5, "c": true, "d": null}]`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r["a"] != "x" || r["b"] != "2.5" || r["c"] != "true" {
		t.Errorf("Unexpected record %v", r)
	}
	if _, ok := r["d"]; ok {
		t.Error("Null values should be omitted")
	}
}

// =====================================================
// Scheduler Tests
// =====================================================

func TestSchedulerRunsDueConnections(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix", "item": "SKU-1", "qty": "1"}]`)

	settings := &models.SyncSettings{
		ConnectionID:    models.UUID(connID),
		Enabled:         true,
		IntervalMinutes: models.MinSyncIntervalMinutes,
		Direction:       models.SyncPull,
		Policy:          models.RemoteWins,
	}
	if err := repo.UpsertSyncSettings(settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	runner := NewRunner(repo, nil)
	scheduler := NewScheduler(runner, repo, &SchedulerConfig{CheckInterval: 20 * time.Millisecond})
	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.After(2 * time.Second)
	for {
		runs, err := repo.ListSyncRuns(connID, 10)
		if err != nil {
			t.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) > 0 {
			if runs[0].Status != models.RunSucceeded {
				t.Errorf("Expected a succeeded run, got %s", runs[0].Status)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("Scheduler never triggered a run")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	scheduler := NewScheduler(NewRunner(repo, nil), repo, &SchedulerConfig{CheckInterval: time.Hour})

	scheduler.Start()
	scheduler.Start()
	if !scheduler.IsRunning() {
		t.Error("Scheduler should be running")
	}
	scheduler.Stop()
	scheduler.Stop()
	if scheduler.IsRunning() {
		t.Error("Scheduler should be stopped")
	}
}

func TestSchedulerSkipsDisabledAndNotDue(t *testing.T) {
	repo := setupTestRepo(t)
	connID := createSyncFixture(t, repo, `[{"vendor": "fix", "item": "SKU-1", "qty": "1"}]`)

	settings := &models.SyncSettings{
		ConnectionID:    models.UUID(connID),
		Enabled:         true,
		IntervalMinutes: 60,
		Direction:       models.SyncPull,
		Policy:          models.RemoteWins,
	}
	if err := repo.UpsertSyncSettings(settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	// Pretend the last run just happened.
	if err := repo.MarkSyncRan(connID, time.Now().Unix()); err != nil {
		t.Fatalf("Failed to mark sync ran: %v", err)
	}

	runner := NewRunner(repo, nil)
	scheduler := NewScheduler(runner, repo, &SchedulerConfig{CheckInterval: 20 * time.Millisecond})
	scheduler.Start()
	time.Sleep(100 * time.Millisecond)
	scheduler.Stop()

	runs, err := repo.ListSyncRuns(connID, 10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("No runs expected inside the interval, got %d", len(runs))
	}
}
