// Package models provides data model definitions for the SupplierDesk backend.
package models

import "time"

// ConnectionType identifies how an external system is reached.
type ConnectionType string

const (
	ConnectionAPI      ConnectionType = "api"
	ConnectionSFTP     ConnectionType = "sftp"
	ConnectionDatabase ConnectionType = "database"
	ConnectionWebhook  ConnectionType = "webhook"
	ConnectionManual   ConnectionType = "manual"
)

// Valid reports whether the type is one of the known values.
func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionAPI, ConnectionSFTP, ConnectionDatabase, ConnectionWebhook, ConnectionManual:
		return true
	}
	return false
}

// ConnectionStatus reflects the result of the most recent probe.
type ConnectionStatus string

const (
	ConnectionUnconfigured ConnectionStatus = "unconfigured"
	ConnectionOK           ConnectionStatus = "ok"
	ConnectionFailed       ConnectionStatus = "failed"
)

// AuthMethod identifies how an API connection authenticates.
type AuthMethod string

const (
	AuthNone   AuthMethod = "none"
	AuthAPIKey AuthMethod = "api_key"
	AuthBearer AuthMethod = "bearer"
	AuthBasic  AuthMethod = "basic"
)

// Valid reports whether the auth method is one of the known values.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthNone, AuthAPIKey, AuthBearer, AuthBasic:
		return true
	}
	return false
}

// Connection configures access to one external supplier system.
// SecretEncrypted is never exposed in JSON responses.
type Connection struct {
	ID         UUID           `db:"id" json:"id"`
	SupplierID UUID           `db:"supplier_id" json:"supplier_id"`
	Name       string         `db:"name" json:"name"`
	Type       ConnectionType `db:"type" json:"type"`

	// api
	BaseURL    string     `db:"base_url" json:"base_url,omitempty"`
	AuthMethod AuthMethod `db:"auth_method" json:"auth_method,omitempty"`

	// sftp
	Host       string `db:"host" json:"host,omitempty"`
	Port       int    `db:"port" json:"port,omitempty"`
	Username   string `db:"username" json:"username,omitempty"`
	RemotePath string `db:"remote_path" json:"remote_path,omitempty"`

	// database
	Driver string `db:"driver" json:"driver,omitempty"`
	DSN    string `db:"dsn" json:"dsn,omitempty"`

	// webhook
	EndpointURL string `db:"endpoint_url" json:"endpoint_url,omitempty"`
	Method      string `db:"method" json:"method,omitempty"`

	// manual
	Instructions string `db:"instructions" json:"instructions,omitempty"`

	SecretEncrypted string `db:"secret_encrypted" json:"-"` // Never expose
	SecretSet       bool   `db:"-" json:"secret_set"`

	// SamplePayload is a JSON array of source records used by sync dry runs.
	SamplePayload string `db:"sample_payload" json:"sample_payload,omitempty"`

	Status       ConnectionStatus `db:"status" json:"status"`
	LastTestedAt int64            `db:"last_tested_at" json:"last_tested_at,omitempty"`
	LastError    string           `db:"last_error" json:"last_error,omitempty"`
	CreatedAt    int64            `db:"created_at" json:"created_at"`
	UpdatedAt    int64            `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Connection.
func (Connection) TableName() string {
	return "connections"
}

// Redact clears secret material and sets the SecretSet flag for responses.
func (c *Connection) Redact() {
	c.SecretSet = c.SecretEncrypted != ""
	c.SecretEncrypted = ""
	c.DSN = redactDSN(c.DSN)
}

// redactDSN blanks everything after the scheme so a stored DSN never leaks
// credentials through list responses.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	return "(configured)"
}

// LastTestedAtTime returns LastTestedAt as time.Time.
func (c *Connection) LastTestedAtTime() time.Time {
	return time.Unix(c.LastTestedAt, 0)
}

// Touch updates the UpdatedAt timestamp.
func (c *Connection) Touch() {
	c.UpdatedAt = time.Now().Unix()
}
