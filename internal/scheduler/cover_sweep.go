package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc performs one orphan cover sweep. It either runs the sweep in
// place or hands it to the task queue.
type SweepFunc func(ctx context.Context) error

// CoverSweepScheduler periodically removes cover files no book references.
type CoverSweepScheduler struct {
	schedule string
	sweep    SweepFunc

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	jobCtx    context.Context
	cancel    context.CancelFunc
}

// NewCoverSweepScheduler creates a scheduler; call Start to activate it.
func NewCoverSweepScheduler(schedule string, sweep SweepFunc) *CoverSweepScheduler {
	return &CoverSweepScheduler{
		schedule: schedule,
		sweep:    sweep,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the sweep job and starts the cron loop. The scheduler
// stops on its own when ctx is cancelled.
func (s *CoverSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.sweep == nil {
		return fmt.Errorf("cover sweep scheduler: no sweep function")
	}
	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule cover sweep: %w", err)
	}
	s.entryID = entryID
	s.jobCtx, s.cancel = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.schedule, time.Now())
	slog.Info("cover sweep scheduler started",
		"schedule", s.schedule,
		"description", CronDescription(s.schedule),
		"next_run", next)

	jobCtx := s.jobCtx
	go func() {
		<-jobCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (s *CoverSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	done := s.cron.Stop()
	<-done.Done()
	s.cron.Remove(s.entryID)

	s.cancel()
	s.isRunning = false
	slog.Info("cover sweep scheduler stopped")
}

// RunNow triggers a sweep outside the schedule.
func (s *CoverSweepScheduler) RunNow(ctx context.Context) error {
	return s.sweep(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *CoverSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next sweep will occur, or nil when stopped.
func (s *CoverSweepScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// run must not take s.mu: Stop holds it while waiting for running jobs.
// jobCtx is only written while the cron loop is stopped.
func (s *CoverSweepScheduler) run() {
	ctx := s.jobCtx
	start := time.Now()
	if err := s.sweep(ctx); err != nil {
		slog.Error("cover sweep failed", "error", err)
		return
	}
	slog.Info("cover sweep completed", "duration", time.Since(start).Round(time.Millisecond))
}
