// Package uuid generates and validates the v4 identifiers used as primary
// keys across the API.
package uuid

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// v4 layout with variant bits [89ab] in the fourth group.
var v4Pattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// New returns a fresh v4 UUID string.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s is a well-formed v4 UUID.
func IsValid(s string) bool {
	return v4Pattern.MatchString(s)
}

// Validate returns an error naming s when it is not a well-formed v4 UUID.
func Validate(s string) error {
	if !IsValid(s) {
		return fmt.Errorf("invalid UUID v4 format: %q", s)
	}
	return nil
}
