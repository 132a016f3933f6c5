// Package sync executes and schedules connection sync runs. A run is a dry
// run: it re-probes the connection, applies the configured field mappings
// to the connection's sample payload, and records the outcome, without
// writing supplier data anywhere.
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
	"github.com/nfalk/supplierdesk/backend/internal/mapping"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// EventFunc receives sync notifications for WebSocket broadcast.
type EventFunc func(event string, payload interface{})

// ProbeFunc re-tests a connection's reachability before a run. A nil
// ProbeFunc skips the check.
type ProbeFunc func(ctx context.Context, conn *models.Connection) error

// Runner executes sync runs. At most one run per connection is in flight
// at a time.
type Runner struct {
	repo    *db.Repository
	probe   ProbeFunc
	onEvent EventFunc

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewRunner creates a Runner.
func NewRunner(repo *db.Repository, probe ProbeFunc) *Runner {
	return &Runner{
		repo:     repo,
		probe:    probe,
		inFlight: make(map[string]bool),
	}
}

// SetEventHandler registers the WebSocket notification callback.
func (r *Runner) SetEventHandler(fn EventFunc) {
	r.onEvent = fn
}

func (r *Runner) emit(event string, payload interface{}) {
	if r.onEvent != nil {
		r.onEvent(event, payload)
	}
}

func (r *Runner) acquire(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[connectionID] {
		return false
	}
	r.inFlight[connectionID] = true
	return true
}

func (r *Runner) release(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, connectionID)
}

// Run executes one sync run for the connection and returns the finished
// run record. A failed run returns the record alongside the error.
func (r *Runner) Run(ctx context.Context, connectionID string) (*models.SyncRun, error) {
	conn, err := r.repo.GetConnection(connectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrConnectionNotFound, fmt.Sprintf("connection %s not found", connectionID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load connection", err)
	}

	if !r.acquire(connectionID) {
		return nil, errors.New(errors.ErrSyncRunning, fmt.Sprintf("sync already running for connection %s", connectionID))
	}
	defer r.release(connectionID)

	run := &models.SyncRun{
		ID:           models.UUID(uuid.New()),
		ConnectionID: conn.ID,
	}
	if err := r.repo.CreateSyncRun(run); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create sync run", err)
	}
	r.emit("sync.started", run)

	items, runErr := r.execute(ctx, conn)
	status := models.RunSucceeded
	message := fmt.Sprintf("processed %d records", items)
	if runErr != nil {
		status = models.RunFailed
		message = runErr.Error()
	}
	if err := r.repo.FinishSyncRun(run.ID.String(), status, items, message); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to finish sync run", err)
	}
	now := time.Now().Unix()
	if err := r.repo.MarkSyncRan(connectionID, now); err != nil {
		logging.Warn("Failed to record last sync time", map[string]interface{}{"connection_id": connectionID})
	}

	finished, err := r.repo.ListSyncRuns(connectionID, 1)
	if err != nil || len(finished) == 0 {
		// Fall back to the in-memory record.
		run.Status = status
		run.Items = items
		run.Message = message
		run.FinishedAt = now
	} else {
		run = finished[0]
	}

	r.emit("sync.finished", run)
	if runErr != nil {
		logging.ErrorWithCode("Sync run failed", string(errors.CodeOf(runErr)), runErr, map[string]interface{}{
			"connection_id": connectionID,
			"run_id":        run.ID.String(),
		})
		return run, runErr
	}
	logging.Info("Sync run finished", map[string]interface{}{
		"connection_id": connectionID,
		"run_id":        run.ID.String(),
		"items":         items,
	})
	return run, nil
}

// execute performs the mapping dry run and returns the number of source
// records that mapped cleanly.
func (r *Runner) execute(ctx context.Context, conn *models.Connection) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrSyncFailed, "sync cancelled", err)
	}

	// Manual connections have nothing to reach; everything else must be
	// reachable before its sample data is worth mapping.
	if conn.Type != models.ConnectionManual && r.probe != nil {
		if err := r.probe(ctx, conn); err != nil {
			return 0, errors.Wrap(errors.ErrSyncFailed, "connection is not reachable", err)
		}
	}

	mappings, err := r.repo.ListMappings(conn.ID.String())
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "failed to load mappings", err)
	}
	if err := mapping.ValidateComplete(mappings); err != nil {
		return 0, err
	}

	records, err := decodeSamplePayload(conn.SamplePayload)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, errors.New(errors.ErrSyncFailed, "connection has no sample payload to map")
	}

	processed := 0
	var failed []string
	for i, record := range records {
		result := mapping.Apply(mappings, record)
		if len(result.Violations) > 0 {
			failed = append(failed, fmt.Sprintf("record %d: %s", i+1, result.Violations[0]))
			continue
		}
		processed++
	}
	if len(failed) > 0 {
		return processed, errors.New(errors.ErrSyncFailed,
			fmt.Sprintf("%d of %d records failed mapping; first: %s", len(failed), len(records), failed[0]))
	}
	return processed, nil
}

// decodeSamplePayload parses the stored JSON array into flat string maps.
// Numbers and booleans are stringified so transforms can re-parse them.
func decodeSamplePayload(payload string) ([]map[string]string, error) {
	if payload == "" {
		return nil, nil
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, errors.Wrap(errors.ErrSyncFailed, "sample payload is not a JSON array of objects", err)
	}
	records := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		record := make(map[string]string, len(obj))
		for k, v := range obj {
			switch val := v.(type) {
			case string:
				record[k] = val
			case float64:
				record[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				record[k] = strconv.FormatBool(val)
			case nil:
				// Absent value; leave the key out so required checks fire.
			default:
				b, _ := json.Marshal(val)
				record[k] = string(b)
			}
		}
		records = append(records, record)
	}
	return records, nil
}
