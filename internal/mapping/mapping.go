// Package mapping validates field mapping sets and applies them to external
// records.
package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// Validate checks a mapping set for structural problems: empty or unknown
// target fields, duplicate targets, empty source fields and unknown
// transforms. Returns nil when the set is usable.
func Validate(mappings []models.FieldMapping) error {
	seen := make(map[string]bool, len(mappings))
	for i, m := range mappings {
		if strings.TrimSpace(m.SourceField) == "" {
			return errors.New(errors.ErrMappingInvalid,
				fmt.Sprintf("mapping %d has an empty source field", i))
		}
		if !models.KnownTargetField(m.TargetField) {
			return errors.New(errors.ErrMappingInvalid,
				fmt.Sprintf("unknown target field %q", m.TargetField))
		}
		if seen[m.TargetField] {
			return errors.New(errors.ErrMappingInvalid,
				fmt.Sprintf("duplicate target field %q", m.TargetField))
		}
		seen[m.TargetField] = true
		if m.Transform != "" && !m.Transform.Valid() {
			return errors.New(errors.ErrMappingInvalid,
				fmt.Sprintf("unknown transform %q", m.Transform))
		}
	}
	return nil
}

// ValidateComplete additionally requires every mandatory canonical field to
// be covered. Sync cannot be enabled for a connection until this passes.
func ValidateComplete(mappings []models.FieldMapping) error {
	if err := Validate(mappings); err != nil {
		return err
	}

	covered := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		covered[m.TargetField] = true
	}
	var missing []string
	for _, f := range models.RequiredTargetFields {
		if !covered[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrMappingIncomplete,
			"required target fields not mapped: "+strings.Join(missing, ", "))
	}
	return nil
}

// Result is the outcome of applying a mapping set to one source record.
type Result struct {
	Record     map[string]interface{} `json:"record"`
	Violations []string               `json:"violations,omitempty"`
}

// Apply maps one source record through the mapping set. Missing required
// source fields are reported as violations rather than errors; the caller
// decides whether a partially mapped record is usable.
func Apply(mappings []models.FieldMapping, source map[string]string) Result {
	out := Result{Record: make(map[string]interface{}, len(mappings))}

	for _, m := range mappings {
		raw, ok := source[m.SourceField]
		if !ok || strings.TrimSpace(raw) == "" {
			if m.Required {
				out.Violations = append(out.Violations,
					fmt.Sprintf("missing required source field %q", m.SourceField))
			}
			continue
		}

		value, err := transform(raw, m.Transform)
		if err != nil {
			out.Violations = append(out.Violations,
				fmt.Sprintf("field %q: %v", m.SourceField, err))
			continue
		}
		out.Record[m.TargetField] = value
	}

	return out
}

// transform applies a single field transform.
func transform(raw string, t models.FieldTransform) (interface{}, error) {
	switch t {
	case models.TransformUppercase:
		return strings.ToUpper(raw), nil
	case models.TransformLowercase:
		return strings.ToLower(raw), nil
	case models.TransformTrim:
		return strings.TrimSpace(raw), nil
	case models.TransformNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}
