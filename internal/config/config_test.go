// Package config tests for loading and overrides.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8734" {
		t.Errorf("Unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Storage.DSN != ":memory:" {
		t.Errorf("Unexpected default dsn %q", cfg.Storage.DSN)
	}
	if cfg.History.MaxEntries != 50 {
		t.Errorf("Unexpected default history cap %d", cfg.History.MaxEntries)
	}
	if !cfg.Storage.Seed {
		t.Error("Seeding should default on")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9000"
  probe_timeout: 5s
history:
  max_entries: 10
sync:
  scheduler_enabled: false
  check_interval: 30s
crypto:
  passphrase: from-file
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr not loaded, got %q", cfg.Server.Addr)
	}
	if cfg.Server.ProbeTimeout.Std() != 5*time.Second {
		t.Errorf("ProbeTimeout not loaded, got %v", cfg.Server.ProbeTimeout)
	}
	if cfg.History.MaxEntries != 10 {
		t.Errorf("History cap not loaded, got %d", cfg.History.MaxEntries)
	}
	if cfg.Sync.SchedulerEnabled {
		t.Error("Scheduler should be disabled")
	}
	if cfg.Crypto.Passphrase != "from-file" {
		t.Errorf("Passphrase not loaded, got %q", cfg.Crypto.Passphrase)
	}
	// Values absent from the file keep their defaults.
	if cfg.Storage.DSN != ":memory:" {
		t.Errorf("DSN should keep its default, got %q", cfg.Storage.DSN)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SUPPLIERDESK_ADDR", ":7777")
	t.Setenv("SUPPLIERDESK_HISTORY_MAX", "25")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Env addr not applied, got %q", cfg.Server.Addr)
	}
	if cfg.History.MaxEntries != 25 {
		t.Errorf("Env history cap not applied, got %d", cfg.History.MaxEntries)
	}
}

func TestValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("history:\n  max_entries: -5\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Negative history cap should fail validation")
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("Missing file should fail")
	}
}
