// SupplierDesk backend server.
//
// Serves the REST API, the WebSocket event feed, and runs the background
// sync scheduler. All state lives in SQLite; with the default in-memory
// DSN the dataset is seeded on startup and discarded on shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nfalk/supplierdesk/backend/cmd/server/handlers"
	"github.com/nfalk/supplierdesk/backend/internal/config"
	"github.com/nfalk/supplierdesk/backend/internal/connections"
	"github.com/nfalk/supplierdesk/backend/internal/crypto"
	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/history"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
	"github.com/nfalk/supplierdesk/backend/internal/models"
	"github.com/nfalk/supplierdesk/backend/internal/services"
	syncpkg "github.com/nfalk/supplierdesk/backend/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(os.Stdout, logLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		logging.Error("Server exited with error", err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, err := db.Open(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := db.NewRepository(database.DB)

	if cfg.Storage.Seed {
		if err := db.Seed(repo); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	cipher, err := crypto.NewCipher(cfg.Crypto.Passphrase)
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}

	prober := connections.NewProber(cfg.Server.ProbeTimeout.Std())
	hist := history.NewStore(cfg.History.MaxEntries)

	supplierSvc := services.NewSupplierService(repo, hist)
	orderSvc := services.NewOrderService(repo)
	connectionSvc := services.NewConnectionService(repo, cipher, prober)
	reportSvc := services.NewReportService(repo)
	// Runs re-test the connection through the service so the probe result
	// lands on the connection record too.
	runner := syncpkg.NewRunner(repo, func(ctx context.Context, conn *models.Connection) error {
		_, err := connectionSvc.Test(ctx, conn.ID.String())
		return err
	})

	hub := NewWSHub()
	supplierSvc.SetEventHandler(hub.Broadcast)
	orderSvc.SetEventHandler(hub.Broadcast)
	connectionSvc.SetEventHandler(hub.Broadcast)
	runner.SetEventHandler(hub.Broadcast)

	var scheduler *syncpkg.Scheduler
	if cfg.Sync.SchedulerEnabled {
		scheduler = syncpkg.NewScheduler(runner, repo, &syncpkg.SchedulerConfig{
			CheckInterval: cfg.Sync.CheckInterval.Std(),
		})
		scheduler.Start()
		defer scheduler.Stop()
	}

	mux := http.NewServeMux()
	handlers.NewSupplierHandler(supplierSvc).Register(mux)
	handlers.NewHistoryHandler(supplierSvc).Register(mux)
	handlers.NewOrderHandler(orderSvc).Register(mux)
	handlers.NewConnectionHandler(connectionSvc, runner).Register(mux)
	handlers.NewReportHandler(reportSvc).Register(mux)
	mux.HandleFunc("GET /ws", hub.ServeWS)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d}`, hub.ClientCount())
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("SupplierDesk backend listening", map[string]interface{}{
			"addr":      cfg.Server.Addr,
			"scheduler": cfg.Sync.SchedulerEnabled,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info("Shutting down", map[string]interface{}{
			"signal": sig.String(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func logLevel(level string) logging.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
