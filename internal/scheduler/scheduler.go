package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the refresh job on a cron schedule.
type Scheduler struct {
	Cron   *cron.Cron
	Job    *RefreshJob
	Logger *zap.Logger
	Ctx    context.Context
}

// NewScheduler creates a scheduler using standard five-field cron expressions
// (descriptors such as "@every 6h" are accepted too).
func NewScheduler(ctx context.Context, job *RefreshJob, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:   cron.New(),
		Job:    job,
		Logger: logger,
		Ctx:    ctx,
	}
}

// Register schedules the refresh task. An empty spec registers nothing.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.Logger.Info("refresh scheduled", zap.String("cron", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes the refresh task immediately (manual trigger / refresh on start).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.Logger.Info("running scheduled refresh")
	summary, err := s.Job.Refresh(s.Ctx)
	if err != nil {
		if errors.Is(err, ErrRefreshInProgress) {
			s.Logger.Info("refresh skipped, previous run still in progress")
			return
		}
		s.Logger.Error("scheduled refresh failed", zap.Error(err))
		return
	}
	s.Logger.Info("scheduled refresh done",
		zap.String("run_id", summary.RunID),
		zap.String("status", string(summary.Status)),
		zap.Int("points", summary.Points),
	)
}
