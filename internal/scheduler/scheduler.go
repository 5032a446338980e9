// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/herval/cliobot/internal/config"
)

// TaskFunc is a named job the scheduler can run.
type TaskFunc func(ctx context.Context) error

// Scheduler wraps gocron and drives the tasks registered against it.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	tasks     map[string]TaskFunc

	mu      sync.Mutex
	running bool
}

// New creates a scheduler over the given task registry.
func New(logger *slog.Logger, cfg config.SchedulerConfig, tasks map[string]TaskFunc) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		tasks:     tasks,
	}, nil
}

// Start schedules every enabled task and begins ticking. Tasks with no
// registered function or an empty schedule are skipped with a warning.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for name, taskCfg := range s.cfg.Tasks {
		if !taskCfg.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", name)
			continue
		}

		fn, ok := s.tasks[name]
		if !ok {
			s.logger.Warn("Task configured but not registered, skipping", "task_name", name)
			continue
		}
		if taskCfg.Schedule == "" {
			s.logger.Warn("Task enabled but has empty schedule, skipping", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskCfg.Schedule, true),
			gocron.NewTask(func(ctx context.Context, taskName string) {
				s.logger.Info("Running scheduled task", "task_name", taskName)
				start := time.Now()
				if err := fn(ctx); err != nil {
					s.logger.Error("Scheduled task failed", "task_name", taskName, "error", err)
				}
				s.logger.Info("Finished scheduled task", "task_name", taskName, "duration", time.Since(start))
			}, context.Background(), name),
			gocron.WithName(name),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)

	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	s.logger.Info("Scheduler stopped")
	return nil
}
