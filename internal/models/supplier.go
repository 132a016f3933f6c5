// Package models provides data model definitions for the SupplierDesk backend.
package models

import (
	"database/sql/driver"
	"time"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	if value == nil {
		*u = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*u = UUID(v)
	case string:
		*u = UUID(v)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// SupplierStatus represents the lifecycle status of a supplier.
type SupplierStatus string

const (
	SupplierActive    SupplierStatus = "active"
	SupplierInactive  SupplierStatus = "inactive"
	SupplierPending   SupplierStatus = "pending"
	SupplierSuspended SupplierStatus = "suspended"
)

// Valid reports whether the status is one of the known values.
func (s SupplierStatus) Valid() bool {
	switch s {
	case SupplierActive, SupplierInactive, SupplierPending, SupplierSuspended:
		return true
	}
	return false
}

// Supplier represents a supplier record.
type Supplier struct {
	ID           UUID           `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Code         string         `db:"code" json:"code"`
	ContactName  string         `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail string         `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string         `db:"contact_phone" json:"contact_phone,omitempty"`
	Address      string         `db:"address" json:"address,omitempty"`
	Category     string         `db:"category" json:"category,omitempty"`
	Status       SupplierStatus `db:"status" json:"status"`
	Rating       float64        `db:"rating" json:"rating"`
	PaymentTerms string         `db:"payment_terms" json:"payment_terms,omitempty"`
	LeadTimeDays int            `db:"lead_time_days" json:"lead_time_days"`
	Notes        string         `db:"notes" json:"notes,omitempty"`
	IsDeleted    bool           `db:"is_deleted" json:"is_deleted"`
	CreatedAt    int64          `db:"created_at" json:"created_at"`
	UpdatedAt    int64          `db:"updated_at" json:"updated_at"`
	Version      int            `db:"version" json:"version"`
}

// TableName returns the table name for Supplier.
func (Supplier) TableName() string {
	return "suppliers"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (s *Supplier) CreatedAtTime() time.Time {
	return time.Unix(s.CreatedAt, 0)
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (s *Supplier) UpdatedAtTime() time.Time {
	return time.Unix(s.UpdatedAt, 0)
}

// Touch updates the UpdatedAt timestamp and bumps the version.
func (s *Supplier) Touch() {
	s.UpdatedAt = time.Now().Unix()
	s.Version++
}

// SupplierPatch is a partial supplier update. Nil fields are left unchanged.
type SupplierPatch struct {
	Name         *string         `json:"name,omitempty"`
	Code         *string         `json:"code,omitempty"`
	ContactName  *string         `json:"contact_name,omitempty"`
	ContactEmail *string         `json:"contact_email,omitempty"`
	ContactPhone *string         `json:"contact_phone,omitempty"`
	Address      *string         `json:"address,omitempty"`
	Category     *string         `json:"category,omitempty"`
	Status       *SupplierStatus `json:"status,omitempty"`
	Rating       *float64        `json:"rating,omitempty"`
	PaymentTerms *string         `json:"payment_terms,omitempty"`
	LeadTimeDays *int            `json:"lead_time_days,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
}

// IsZero reports whether the patch sets no fields.
func (p SupplierPatch) IsZero() bool {
	return p.Name == nil && p.Code == nil && p.ContactName == nil &&
		p.ContactEmail == nil && p.ContactPhone == nil && p.Address == nil &&
		p.Category == nil && p.Status == nil && p.Rating == nil &&
		p.PaymentTerms == nil && p.LeadTimeDays == nil && p.Notes == nil
}

// Apply sets the patched fields on the supplier.
func (p SupplierPatch) Apply(s *Supplier) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.ContactName != nil {
		s.ContactName = *p.ContactName
	}
	if p.ContactEmail != nil {
		s.ContactEmail = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		s.ContactPhone = *p.ContactPhone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Rating != nil {
		s.Rating = *p.Rating
	}
	if p.PaymentTerms != nil {
		s.PaymentTerms = *p.PaymentTerms
	}
	if p.LeadTimeDays != nil {
		s.LeadTimeDays = *p.LeadTimeDays
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
}

// Snapshot captures the supplier's current values for the fields a patch
// would change, so the change can be reversed later.
func (p SupplierPatch) Snapshot(s *Supplier) SupplierPatch {
	var before SupplierPatch
	if p.Name != nil {
		v := s.Name
		before.Name = &v
	}
	if p.Code != nil {
		v := s.Code
		before.Code = &v
	}
	if p.ContactName != nil {
		v := s.ContactName
		before.ContactName = &v
	}
	if p.ContactEmail != nil {
		v := s.ContactEmail
		before.ContactEmail = &v
	}
	if p.ContactPhone != nil {
		v := s.ContactPhone
		before.ContactPhone = &v
	}
	if p.Address != nil {
		v := s.Address
		before.Address = &v
	}
	if p.Category != nil {
		v := s.Category
		before.Category = &v
	}
	if p.Status != nil {
		v := s.Status
		before.Status = &v
	}
	if p.Rating != nil {
		v := s.Rating
		before.Rating = &v
	}
	if p.PaymentTerms != nil {
		v := s.PaymentTerms
		before.PaymentTerms = &v
	}
	if p.LeadTimeDays != nil {
		v := s.LeadTimeDays
		before.LeadTimeDays = &v
	}
	if p.Notes != nil {
		v := s.Notes
		before.Notes = &v
	}
	return before
}
