// Package connections validates external connection configuration and probes
// reachability. No supplier protocol is driven here; probing answers only
// "can this system be reached with these settings".
package connections

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// Validate checks the type-specific required fields of a connection.
func Validate(c *models.Connection) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New(errors.ErrConnectionInvalid, "connection name is required")
	}
	if !c.Type.Valid() {
		return errors.New(errors.ErrConnectionInvalid,
			fmt.Sprintf("unknown connection type %q", c.Type))
	}

	switch c.Type {
	case models.ConnectionAPI:
		if err := validateURL(c.BaseURL, "base_url"); err != nil {
			return err
		}
		if c.AuthMethod == "" {
			c.AuthMethod = models.AuthNone
		}
		if !c.AuthMethod.Valid() {
			return errors.New(errors.ErrConnectionInvalid,
				fmt.Sprintf("unknown auth method %q", c.AuthMethod))
		}

	case models.ConnectionSFTP:
		if strings.TrimSpace(c.Host) == "" {
			return errors.New(errors.ErrConnectionInvalid, "sftp host is required")
		}
		if c.Port == 0 {
			c.Port = 22
		}
		if c.Port < 1 || c.Port > 65535 {
			return errors.New(errors.ErrConnectionInvalid,
				fmt.Sprintf("port %d out of range", c.Port))
		}
		if strings.TrimSpace(c.Username) == "" {
			return errors.New(errors.ErrConnectionInvalid, "sftp username is required")
		}

	case models.ConnectionDatabase:
		if c.Driver == "" {
			c.Driver = "postgres"
		}
		if c.Driver != "postgres" {
			return errors.New(errors.ErrConnectionInvalid,
				fmt.Sprintf("unsupported database driver %q", c.Driver))
		}
		if strings.TrimSpace(c.DSN) == "" {
			return errors.New(errors.ErrConnectionInvalid, "database dsn is required")
		}

	case models.ConnectionWebhook:
		if err := validateURL(c.EndpointURL, "endpoint_url"); err != nil {
			return err
		}
		if c.Method == "" {
			c.Method = "POST"
		}
		switch c.Method {
		case "GET", "POST", "PUT", "HEAD":
		default:
			return errors.New(errors.ErrConnectionInvalid,
				fmt.Sprintf("unsupported webhook method %q", c.Method))
		}

	case models.ConnectionManual:
		// Free-form; nothing machine-checkable.
	}

	return nil
}

func validateURL(raw, field string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New(errors.ErrConnectionInvalid, field+" is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrConnectionInvalid,
			fmt.Sprintf("%s is not a valid http(s) URL: %q", field, raw))
	}
	return nil
}
