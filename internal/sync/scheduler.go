package sync

import (
	"context"
	"sync"
	"time"

	"github.com/nfalk/supplierdesk/backend/internal/db"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
)

// Scheduler periodically checks sync settings and triggers due runs.
type Scheduler struct {
	runner        *Runner
	repo          *db.Repository
	checkInterval time.Duration

	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	CheckInterval time.Duration // How often to look for due connections (default: 1 minute)
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		CheckInterval: time.Minute,
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(runner *Runner, repo *db.Repository, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	return &Scheduler{
		runner:        runner,
		repo:          repo,
		checkInterval: config.CheckInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background loop. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
	logging.Info("Sync scheduler started", map[string]interface{}{
		"check_interval": s.checkInterval.String(),
	})
}

// Stop signals the loop to exit and waits for in-flight work to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logging.Info("Sync scheduler stopped")
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runDue()
		}
	}
}

// runDue triggers a run for every enabled connection whose interval has
// elapsed. Runs execute sequentially; a slow connection delays the rest
// until the next tick.
func (s *Scheduler) runDue() {
	settings, err := s.repo.ListEnabledSyncSettings()
	if err != nil {
		logging.Error("Failed to list sync settings", err)
		return
	}

	now := time.Now()
	for _, cfg := range settings {
		if !cfg.Due(now) {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if _, err := s.runner.Run(ctx, cfg.ConnectionID.String()); err != nil {
			logging.Warn("Scheduled sync run failed", map[string]interface{}{
				"connection_id": cfg.ConnectionID.String(),
				"error":         err.Error(),
			})
		}
		cancel()
	}
}
