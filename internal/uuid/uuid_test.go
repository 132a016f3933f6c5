// Package uuid tests for UUID generation and validation.
package uuid

import "testing"

func TestNewProducesValidV4(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New()
		if !IsValid(id) {
			t.Fatalf("Generated UUID is not valid v4: %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate UUID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("9b2db1e4-8c1f-4a8e-9e59-d1cf0a2b3c4d") {
		t.Error("Well-formed v4 UUID should validate")
	}
	if IsValid("not-a-uuid") {
		t.Error("Garbage should not validate")
	}
	if IsValid("9b2db1e4-8c1f-1a8e-9e59-d1cf0a2b3c4d") {
		t.Error("v1 UUID should not validate as v4")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(New()); err != nil {
		t.Errorf("Generated UUID should pass Validate: %v", err)
	}
	if err := Validate(""); err == nil {
		t.Error("Empty string should fail Validate")
	}
}

