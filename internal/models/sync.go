// Package models provides data model definitions for the SupplierDesk backend.
package models

import "time"

// SyncDirection determines which way records flow during a sync run.
type SyncDirection string

const (
	SyncPull          SyncDirection = "pull"
	SyncPush          SyncDirection = "push"
	SyncBidirectional SyncDirection = "bidirectional"
)

// Valid reports whether the direction is one of the known values.
func (d SyncDirection) Valid() bool {
	return d == SyncPull || d == SyncPush || d == SyncBidirectional
}

// ConflictPolicy decides which side wins when both changed.
type ConflictPolicy string

const (
	RemoteWins ConflictPolicy = "remote_wins"
	LocalWins  ConflictPolicy = "local_wins"
)

// Valid reports whether the policy is one of the known values.
func (p ConflictPolicy) Valid() bool {
	return p == RemoteWins || p == LocalWins
}

// MinSyncIntervalMinutes is the smallest interval the scheduler accepts.
const MinSyncIntervalMinutes = 5

// SyncSettings configures scheduled synchronization for one connection.
type SyncSettings struct {
	ConnectionID    UUID           `db:"connection_id" json:"connection_id"`
	Enabled         bool           `db:"enabled" json:"enabled"`
	IntervalMinutes int            `db:"interval_minutes" json:"interval_minutes"`
	Direction       SyncDirection  `db:"direction" json:"direction"`
	Policy          ConflictPolicy `db:"policy" json:"policy"`
	LastRunAt       int64          `db:"last_run_at" json:"last_run_at,omitempty"`
	UpdatedAt       int64          `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for SyncSettings.
func (SyncSettings) TableName() string {
	return "sync_settings"
}

// Due reports whether a scheduled run is due at time now.
func (s *SyncSettings) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.LastRunAt == 0 {
		return true
	}
	next := time.Unix(s.LastRunAt, 0).Add(time.Duration(s.IntervalMinutes) * time.Minute)
	return !now.Before(next)
}

// SyncRunStatus represents the outcome of a sync run.
type SyncRunStatus string

const (
	RunRunning   SyncRunStatus = "running"
	RunSucceeded SyncRunStatus = "succeeded"
	RunFailed    SyncRunStatus = "failed"
)

// SyncRun records one execution of a connection sync.
type SyncRun struct {
	ID           UUID          `db:"id" json:"id"`
	ConnectionID UUID          `db:"connection_id" json:"connection_id"`
	Status       SyncRunStatus `db:"status" json:"status"`
	StartedAt    int64         `db:"started_at" json:"started_at"`
	FinishedAt   int64         `db:"finished_at" json:"finished_at,omitempty"`
	Items        int           `db:"items" json:"items"`
	Message      string        `db:"message" json:"message,omitempty"`
}

// TableName returns the table name for SyncRun.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == 0 {
		return 0
	}
	return time.Duration(r.FinishedAt-r.StartedAt) * time.Second
}
