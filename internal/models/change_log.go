// Package models provides data model definitions for the SupplierDesk backend.
package models

import "time"

// ChangeLog is the append-only audit trail of domain mutations.
// Unlike the in-memory action history it is never truncated or rewound.
type ChangeLog struct {
	ID          UUID   `db:"id" json:"id"`
	EntityType  string `db:"entity_type" json:"entity_type"` // supplier, order, connection
	EntityID    UUID   `db:"entity_id" json:"entity_id"`
	Operation   string `db:"operation" json:"operation"` // create, update, delete, status_change, bulk_update, undo, redo
	Description string `db:"description" json:"description"`
	Timestamp   int64  `db:"timestamp" json:"timestamp"`
}

// TableName returns the table name for ChangeLog.
func (ChangeLog) TableName() string {
	return "change_log"
}

// Time returns the Timestamp as time.Time.
func (c *ChangeLog) Time() time.Time {
	return time.Unix(c.Timestamp, 0)
}
