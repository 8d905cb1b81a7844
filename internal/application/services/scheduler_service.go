package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

const jobMaxRuntime = 5 * time.Minute

// ScheduleConfig holds the cron specs of the background jobs.
type ScheduleConfig struct {
	SessionSweep     string
	OverdueCheck     string
	SessionRetention time.Duration
}

// SchedulerService runs the periodic maintenance jobs.
type SchedulerService struct {
	cron     *cron.Cron
	sessions SessionStore
	tasks    TaskStore
	events   ports.EventPublisher
	cfg      ScheduleConfig
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewSchedulerService creates a scheduler and registers its jobs. It returns
// an error when a cron spec does not parse.
func NewSchedulerService(sessions SessionStore, tasks TaskStore, bus ports.EventPublisher, cfg ScheduleConfig, logger *zap.Logger) (*SchedulerService, error) {
	s := &SchedulerService{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		sessions: sessions,
		tasks:    tasks,
		events:   bus,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"session_sweep", cfg.SessionSweep, s.SweepSessions},
		{"overdue_check", cfg.OverdueCheck, s.CheckOverdue},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", j.spec, j.name, err)
		}
	}
	return s, nil
}

// wrap bounds a job's runtime and logs its outcome.
func (s *SchedulerService) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobMaxRuntime)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("❌ scheduled job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Debug("✅ scheduled job completed", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// Start begins running jobs in the background. Calling Start twice is a no-op.
func (s *SchedulerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.logger.Info("⏰ Scheduler service starting...", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever
// comes first.
func (s *SchedulerService) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("⏰ Scheduler service stopping...")
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("⏰ Scheduler service stopped")
	case <-ctx.Done():
		s.logger.Warn("⚠️ Scheduler stop timed out with jobs still running")
	}
}

// SweepSessions deletes expired or revoked sessions older than the retention.
func (s *SchedulerService) SweepSessions(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.cfg.SessionRetention)
	n, err := s.sessions.DeleteStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("🧹 Swept stale sessions", zap.Int64("deleted", n))
	}
	return nil
}

// CheckOverdue publishes task.overdue for every assigned task past its
// deadline that is not approved.
func (s *SchedulerService) CheckOverdue(ctx context.Context) error {
	tasks, err := s.tasks.ListOverdue(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	for _, t := range tasks {
		if t.AssignedTo == nil {
			continue
		}
		evt := events.TaskEvent{TaskID: t.ID, Title: t.Title, ActorID: utils.Deref(t.AssignedBy), AssigneeID: *t.AssignedTo, From: string(t.Status)}
		if err := s.events.Publish(ctx, events.TaskOverdue, evt); err != nil {
			s.logger.Warn("overdue notification failed", zap.String("task_id", t.ID), zap.Error(err))
		}
	}
	if len(tasks) > 0 {
		s.logger.Info("⏰ Overdue tasks found", zap.Int("count", len(tasks)))
	}
	return nil
}
