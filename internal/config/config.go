// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nfalk/supplierdesk/backend/internal/history"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all server settings.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	History  HistoryConfig `yaml:"history"`
	Sync     SyncConfig    `yaml:"sync"`
	Crypto   CryptoConfig  `yaml:"crypto"`
	LogLevel string        `yaml:"log_level"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DSN  string `yaml:"dsn"`
	Seed bool   `yaml:"seed"`
}

// HistoryConfig holds undo/redo settings.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// SyncConfig holds scheduler settings.
type SyncConfig struct {
	SchedulerEnabled bool     `yaml:"scheduler_enabled"`
	CheckInterval    Duration `yaml:"check_interval"`
}

// CryptoConfig holds the secret encryption passphrase.
type CryptoConfig struct {
	Passphrase string `yaml:"passphrase"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8734",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			ProbeTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			DSN:  ":memory:",
			Seed: true,
		},
		History: HistoryConfig{
			MaxEntries: history.DefaultMaxEntries,
		},
		Sync: SyncConfig{
			SchedulerEnabled: true,
			CheckInterval:    Duration(time.Minute),
		},
		Crypto: CryptoConfig{
			Passphrase: "supplierdesk-dev",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (optional) and applies environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("SUPPLIERDESK_ADDR", c.Server.Addr)
	c.Storage.DSN = getEnv("SUPPLIERDESK_DSN", c.Storage.DSN)
	c.Crypto.Passphrase = getEnv("SUPPLIERDESK_PASSPHRASE", c.Crypto.Passphrase)
	c.LogLevel = getEnv("SUPPLIERDESK_LOG_LEVEL", c.LogLevel)
	c.History.MaxEntries = getEnvInt("SUPPLIERDESK_HISTORY_MAX", c.History.MaxEntries)
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history max_entries must be positive")
	}
	if c.Sync.CheckInterval.Std() < time.Second {
		return fmt.Errorf("sync check_interval must be at least 1s")
	}
	if c.Sync.CheckInterval.Std() > time.Duration(models.MinSyncIntervalMinutes)*time.Minute {
		return fmt.Errorf("sync check_interval must not exceed the minimum sync interval")
	}
	if c.Crypto.Passphrase == "" {
		return fmt.Errorf("crypto passphrase is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
