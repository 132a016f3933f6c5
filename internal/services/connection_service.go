package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nfalk/supplierdesk/backend/internal/connections"
	"github.com/nfalk/supplierdesk/backend/internal/crypto"
	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
	"github.com/nfalk/supplierdesk/backend/internal/mapping"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/uuid"
)

// ConnectionService manages external system connections, their field
// mappings, and their sync settings. Secrets are encrypted at rest and
// never returned to clients.
type ConnectionService struct {
	repo    *db.Repository
	cipher  *crypto.Cipher
	prober  *connections.Prober
	onEvent EventFunc
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(repo *db.Repository, cipher *crypto.Cipher, prober *connections.Prober) *ConnectionService {
	return &ConnectionService{repo: repo, cipher: cipher, prober: prober}
}

// SetEventHandler registers the WebSocket notification callback.
func (s *ConnectionService) SetEventHandler(fn EventFunc) {
	s.onEvent = fn
}

func (s *ConnectionService) emit(event string, payload interface{}) {
	if s.onEvent != nil {
		s.onEvent(event, payload)
	}
}

// Create validates and stores a new connection. secret is the plaintext
// credential for the connection (api key, sftp password), may be empty.
func (s *ConnectionService) Create(c *models.Connection, secret string) (*models.Connection, error) {
	if err := connections.Validate(c); err != nil {
		return nil, err
	}
	if c.SupplierID != "" {
		if _, err := s.repo.GetSupplier(c.SupplierID.String()); err != nil {
			if err == sql.ErrNoRows {
				return nil, errors.New(errors.ErrSupplierNotFound, fmt.Sprintf("supplier %s not found", c.SupplierID))
			}
			return nil, errors.Wrap(errors.ErrDatabase, "failed to load supplier", err)
		}
	}
	if c.ID == "" {
		c.ID = models.UUID(uuid.New())
	}
	if secret != "" {
		enc, err := s.cipher.Encrypt(secret)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCryptoFailed, "failed to encrypt connection secret", err)
		}
		c.SecretEncrypted = enc
	}
	c.Status = models.ConnectionUnconfigured
	if err := s.repo.CreateConnection(c); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create connection", err)
	}
	out := *c
	out.Redact()
	s.emit("connection.created", &out)
	return &out, nil
}

// Get returns a connection with secret material redacted.
func (s *ConnectionService) Get(id string) (*models.Connection, error) {
	c, err := s.get(id)
	if err != nil {
		return nil, err
	}
	c.Redact()
	return c, nil
}

// get returns the raw connection including the encrypted secret.
func (s *ConnectionService) get(id string) (*models.Connection, error) {
	c, err := s.repo.GetConnection(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrConnectionNotFound, fmt.Sprintf("connection %s not found", id))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load connection", err)
	}
	return c, nil
}

// List returns connections, optionally filtered by supplier, redacted.
func (s *ConnectionService) List(supplierID string) ([]*models.Connection, error) {
	conns, err := s.repo.ListConnections(supplierID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list connections", err)
	}
	for _, c := range conns {
		c.Redact()
	}
	return conns, nil
}

// Update replaces a connection's settings. An empty secret keeps the
// stored one; a non-empty secret replaces it.
func (s *ConnectionService) Update(id string, updated *models.Connection, secret string) (*models.Connection, error) {
	cur, err := s.get(id)
	if err != nil {
		return nil, err
	}
	updated.ID = cur.ID
	if updated.SupplierID == "" {
		updated.SupplierID = cur.SupplierID
	}
	if err := connections.Validate(updated); err != nil {
		return nil, err
	}
	updated.SecretEncrypted = cur.SecretEncrypted
	if secret != "" {
		enc, err := s.cipher.Encrypt(secret)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCryptoFailed, "failed to encrypt connection secret", err)
		}
		updated.SecretEncrypted = enc
	}
	// Settings changed, so the last probe result no longer applies.
	updated.Status = models.ConnectionUnconfigured
	updated.CreatedAt = cur.CreatedAt
	if err := s.repo.UpdateConnection(updated); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update connection", err)
	}
	out := *updated
	out.Redact()
	s.emit("connection.updated", &out)
	return &out, nil
}

// Delete removes a connection along with its mappings, sync settings, and
// run history.
func (s *ConnectionService) Delete(id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	if err := s.repo.DeleteConnection(id); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete connection", err)
	}
	s.emit("connection.deleted", map[string]string{"id": id})
	return nil
}

// Test probes the connection and records the outcome on the record.
func (s *ConnectionService) Test(ctx context.Context, id string) (*models.Connection, error) {
	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	secret := ""
	if c.SecretEncrypted != "" {
		secret, err = s.cipher.Decrypt(c.SecretEncrypted)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCryptoFailed, "failed to decrypt connection secret", err)
		}
	}

	status := models.ConnectionOK
	lastError := ""
	if probeErr := s.prober.Probe(ctx, c, secret); probeErr != nil {
		status = models.ConnectionFailed
		lastError = probeErr.Error()
		logging.Warn("Connection probe failed", map[string]interface{}{
			"id":    id,
			"type":  string(c.Type),
			"error": lastError,
		})
	}
	if err := s.repo.UpdateConnectionStatus(id, status, lastError); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to record probe result", err)
	}

	c, err = s.Get(id)
	if err != nil {
		return nil, err
	}
	s.emit("connection.tested", c)
	if status == models.ConnectionFailed {
		return c, errors.New(errors.ErrConnectionProbe, lastError)
	}
	return c, nil
}

// SetMappings validates and replaces a connection's field mappings.
// Mappings may be saved while incomplete; completeness is enforced when
// sync is enabled.
func (s *ConnectionService) SetMappings(connectionID string, mappings []models.FieldMapping) ([]models.FieldMapping, error) {
	if _, err := s.get(connectionID); err != nil {
		return nil, err
	}
	if err := mapping.Validate(mappings); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceMappings(connectionID, mappings); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save mappings", err)
	}
	saved, err := s.repo.ListMappings(connectionID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to reload mappings", err)
	}
	s.emit("mappings.updated", map[string]interface{}{"connection_id": connectionID, "count": len(saved)})
	return saved, nil
}

// GetMappings returns a connection's field mappings in position order.
func (s *ConnectionService) GetMappings(connectionID string) ([]models.FieldMapping, error) {
	if _, err := s.get(connectionID); err != nil {
		return nil, err
	}
	mappings, err := s.repo.ListMappings(connectionID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list mappings", err)
	}
	return mappings, nil
}

// SetSyncSettings creates or updates a connection's sync schedule.
// Enabling sync requires a complete set of mappings.
func (s *ConnectionService) SetSyncSettings(settings *models.SyncSettings) (*models.SyncSettings, error) {
	if _, err := s.get(settings.ConnectionID.String()); err != nil {
		return nil, err
	}
	if !settings.Direction.Valid() {
		return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("unknown sync direction %q", settings.Direction))
	}
	if !settings.Policy.Valid() {
		return nil, errors.New(errors.ErrInvalid, fmt.Sprintf("unknown conflict policy %q", settings.Policy))
	}
	if settings.IntervalMinutes < models.MinSyncIntervalMinutes {
		return nil, errors.New(errors.ErrInvalid,
			fmt.Sprintf("sync interval must be at least %d minutes", models.MinSyncIntervalMinutes))
	}
	if settings.Enabled {
		mappings, err := s.repo.ListMappings(settings.ConnectionID.String())
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to list mappings", err)
		}
		if err := mapping.ValidateComplete(mappings); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpsertSyncSettings(settings); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save sync settings", err)
	}
	saved, err := s.repo.GetSyncSettings(settings.ConnectionID.String())
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to reload sync settings", err)
	}
	s.emit("sync.settings_updated", saved)
	return saved, nil
}

// GetSyncSettings returns a connection's sync settings if configured.
func (s *ConnectionService) GetSyncSettings(connectionID string) (*models.SyncSettings, error) {
	if _, err := s.get(connectionID); err != nil {
		return nil, err
	}
	settings, err := s.repo.GetSyncSettings(connectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrSyncNotConfigured, fmt.Sprintf("sync not configured for connection %s", connectionID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load sync settings", err)
	}
	return settings, nil
}

// SyncRuns lists the most recent sync runs for a connection.
func (s *ConnectionService) SyncRuns(connectionID string, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.get(connectionID); err != nil {
		return nil, err
	}
	runs, err := s.repo.ListSyncRuns(connectionID, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list sync runs", err)
	}
	return runs, nil
}
