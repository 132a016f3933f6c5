// Package models provides data model definitions for the SupplierDesk backend.
package models

// FieldTransform is applied to a source value before it is written to the
// target field.
type FieldTransform string

const (
	TransformNone      FieldTransform = "none"
	TransformUppercase FieldTransform = "uppercase"
	TransformLowercase FieldTransform = "lowercase"
	TransformTrim      FieldTransform = "trim"
	TransformNumber    FieldTransform = "number"
)

// Valid reports whether the transform is one of the known values.
func (t FieldTransform) Valid() bool {
	switch t {
	case TransformNone, TransformUppercase, TransformLowercase, TransformTrim, TransformNumber:
		return true
	}
	return false
}

// FieldMapping maps one source field of an external record to a canonical
// target field.
type FieldMapping struct {
	ID           UUID           `db:"id" json:"id"`
	ConnectionID UUID           `db:"connection_id" json:"connection_id"`
	SourceField  string         `db:"source_field" json:"source_field"`
	TargetField  string         `db:"target_field" json:"target_field"`
	Transform    FieldTransform `db:"transform" json:"transform"`
	Required     bool           `db:"required" json:"required"`
	Position     int            `db:"position" json:"position"`
}

// TableName returns the table name for FieldMapping.
func (FieldMapping) TableName() string {
	return "field_mappings"
}

// CanonicalTargetFields lists the target fields a mapping may write to.
var CanonicalTargetFields = []string{
	"supplier_code",
	"supplier_name",
	"contact_email",
	"order_number",
	"sku",
	"description",
	"quantity",
	"unit_price",
	"currency",
	"expected_date",
}

// RequiredTargetFields must all be covered before sync can be enabled for a
// connection.
var RequiredTargetFields = []string{
	"supplier_code",
	"sku",
	"quantity",
}

// KnownTargetField reports whether name is a canonical target field.
func KnownTargetField(name string) bool {
	for _, f := range CanonicalTargetFields {
		if f == name {
			return true
		}
	}
	return false
}
