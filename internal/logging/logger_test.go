// Package logging tests for the structured JSON logger.
package logging

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func newTestLogger(min LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{out: &buf, minLevel: min}, &buf
}

func TestLogEmitsJSON(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Info("supplier created", map[string]interface{}{"supplier_id": "abc"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Message != "supplier created" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Context["supplier_id"] != "abc" {
		t.Errorf("Context not carried: %+v", entry.Context)
	}
}

func TestMinLevelFilters(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("noise")
	l.Info("noise")
	if buf.Len() != 0 {
		t.Errorf("Below-threshold levels should be dropped, got %q", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("Warn should be logged at warn threshold")
	}
}

func TestErrorWithCode(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.ErrorWithCode("sync failed", "SYNC_FAILED", stderrors.New("timeout"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v", err)
	}
	if entry.Code != "SYNC_FAILED" {
		t.Errorf("Expected code in entry, got %+v", entry)
	}
	if !strings.Contains(entry.Error, "timeout") {
		t.Errorf("Expected cause in entry, got %+v", entry)
	}
}

func TestMergeContext(t *testing.T) {
	merged := mergeContext(
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2},
	)
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("Contexts not merged: %+v", merged)
	}

	if mergeContext() != nil {
		t.Error("No contexts should merge to nil")
	}
}
