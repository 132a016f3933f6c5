// Package connections tests for validation and probing.
package connections

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/models"
)

func TestValidateAPI(t *testing.T) {
	c := &models.Connection{Name: "feed", Type: models.ConnectionAPI, BaseURL: "https://x.example/v1"}
	if err := Validate(c); err != nil {
		t.Errorf("Valid api connection rejected: %v", err)
	}
	if c.AuthMethod != models.AuthNone {
		t.Errorf("Auth method should default to none, got %q", c.AuthMethod)
	}

	bad := &models.Connection{Name: "feed", Type: models.ConnectionAPI, BaseURL: "ftp://x.example"}
	if err := Validate(bad); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for non-http URL, got %v", err)
	}

	missing := &models.Connection{Name: "feed", Type: models.ConnectionAPI}
	if err := Validate(missing); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for missing URL, got %v", err)
	}
}

func TestValidateSFTP(t *testing.T) {
	c := &models.Connection{Name: "drop", Type: models.ConnectionSFTP, Host: "sftp.example", Username: "feed"}
	if err := Validate(c); err != nil {
		t.Errorf("Valid sftp connection rejected: %v", err)
	}
	if c.Port != 22 {
		t.Errorf("Port should default to 22, got %d", c.Port)
	}

	c.Port = 70000
	if err := Validate(c); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for bad port, got %v", err)
	}

	noUser := &models.Connection{Name: "drop", Type: models.ConnectionSFTP, Host: "sftp.example"}
	if err := Validate(noUser); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for missing user, got %v", err)
	}
}

func TestValidateDatabase(t *testing.T) {
	c := &models.Connection{Name: "erp", Type: models.ConnectionDatabase, DSN: "host=erp dbname=stock"}
	if err := Validate(c); err != nil {
		t.Errorf("Valid database connection rejected: %v", err)
	}
	if c.Driver != "postgres" {
		t.Errorf("Driver should default to postgres, got %q", c.Driver)
	}

	c.Driver = "oracle"
	if err := Validate(c); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for unsupported driver, got %v", err)
	}
}

func TestValidateWebhookAndManual(t *testing.T) {
	w := &models.Connection{Name: "hook", Type: models.ConnectionWebhook, EndpointURL: "https://hook.example/in"}
	if err := Validate(w); err != nil {
		t.Errorf("Valid webhook rejected: %v", err)
	}
	if w.Method != "POST" {
		t.Errorf("Webhook method should default to POST, got %q", w.Method)
	}

	w.Method = "TRACE"
	if err := Validate(w); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid for TRACE, got %v", err)
	}

	m := &models.Connection{Name: "paper", Type: models.ConnectionManual}
	if err := Validate(m); err != nil {
		t.Errorf("Manual connection rejected: %v", err)
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	c := &models.Connection{Name: "x", Type: "carrier_pigeon"}
	if err := Validate(c); !errors.Is(err, errors.ErrConnectionInvalid) {
		t.Errorf("Expected ErrConnectionInvalid, got %v", err)
	}
}

func TestProbeAPISuccess(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewProber(2 * time.Second)
	c := &models.Connection{Type: models.ConnectionAPI, BaseURL: server.URL, AuthMethod: models.AuthAPIKey}

	if err := p.Probe(context.Background(), c, "sekrit"); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if gotKey != "sekrit" {
		t.Errorf("Probe should send the api key, got %q", gotKey)
	}
}

func TestProbeTreatsAuthFailureAsReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewProber(2 * time.Second)
	c := &models.Connection{Type: models.ConnectionAPI, BaseURL: server.URL}
	if err := p.Probe(context.Background(), c, ""); err != nil {
		t.Errorf("401 should count as reachable, got %v", err)
	}
}

func TestProbeReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewProber(2 * time.Second)
	c := &models.Connection{Type: models.ConnectionWebhook, EndpointURL: server.URL, Method: "GET"}
	if err := p.Probe(context.Background(), c, ""); err == nil {
		t.Error("5xx should fail the probe")
	}
}

func TestProbeUnreachableHTTP(t *testing.T) {
	p := NewProber(500 * time.Millisecond)
	c := &models.Connection{Type: models.ConnectionAPI, BaseURL: "http://127.0.0.1:1/nope"}
	if err := p.Probe(context.Background(), c, ""); err == nil {
		t.Error("Unreachable endpoint should fail the probe")
	}
}

func TestProbeSFTPPortOpen(t *testing.T) {
	// Any listening TCP port stands in for an SFTP endpoint.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portStr, _ := net.SplitHostPort(listener.Addr().String())
	port, _ := strconv.Atoi(portStr)

	p := NewProber(2 * time.Second)
	c := &models.Connection{Type: models.ConnectionSFTP, Host: "127.0.0.1", Port: port}
	if err := p.Probe(context.Background(), c, ""); err != nil {
		t.Errorf("Open port should probe ok, got %v", err)
	}

	c.Port = 1
	if err := p.Probe(context.Background(), c, ""); err == nil {
		t.Error("Closed port should fail the probe")
	}
}

func TestProbeManualAlwaysOK(t *testing.T) {
	p := NewProber(time.Second)
	c := &models.Connection{Type: models.ConnectionManual}
	if err := p.Probe(context.Background(), c, ""); err != nil {
		t.Errorf("Manual connections have nothing to probe, got %v", err)
	}
}
