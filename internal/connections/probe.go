// Package connections validates external connection configuration and probes
// reachability.
package connections

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/time/rate"

	"github.com/nfalk/supplierdesk/backend/internal/models"
)

// Prober tests whether a configured connection can be reached. HTTP probes
// share one rate-limited client so a misbehaving dashboard cannot hammer a
// partner system with test requests.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewProber creates a Prober. Probes are limited to one request per second
// with small bursts.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		timeout: timeout,
	}
}

// Probe checks reachability per connection type. A secret, when needed, is
// passed decrypted by the caller; it never lives on the Connection model.
// The returned error describes why the system is unreachable; configuration
// problems surface through Validate, not here.
func (p *Prober) Probe(ctx context.Context, c *models.Connection, secret string) error {
	switch c.Type {
	case models.ConnectionAPI:
		return p.probeHTTP(ctx, http.MethodGet, c.BaseURL, c.AuthMethod, secret)
	case models.ConnectionWebhook:
		method := c.Method
		if method == "" {
			method = http.MethodHead
		}
		return p.probeHTTP(ctx, method, c.EndpointURL, models.AuthNone, "")
	case models.ConnectionDatabase:
		return p.probeDatabase(ctx, c.Driver, c.DSN)
	case models.ConnectionSFTP:
		return p.probeTCP(c.Host, c.Port)
	case models.ConnectionManual:
		return nil
	}
	return fmt.Errorf("cannot probe connection type %q", c.Type)
}

func (p *Prober) probeHTTP(ctx context.Context, method, rawURL string, auth models.AuthMethod, secret string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return err
	}
	switch auth {
	case models.AuthAPIKey:
		req.Header.Set("X-API-Key", secret)
	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+secret)
	case models.AuthBasic:
		req.Header.Set("Authorization", "Basic "+secret)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Anything the server answers short of 5xx counts as reachable; a 401
	// still proves the endpoint exists and TLS works.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}

func (p *Prober) probeDatabase(ctx context.Context, driver, dsn string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return db.PingContext(ctx)
}

func (p *Prober) probeTCP(host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, p.timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}
