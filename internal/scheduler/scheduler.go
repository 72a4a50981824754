// Package scheduler triggers the check pipeline on a fixed interval or cron
// expression and keeps the timer alive across individual run failures.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalwatch/internal/shared"
	"github.com/robfig/cron/v3"
)

// State is the scheduler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Scheduler owns a single recurring check job. The job body is wrapped in a
// run guard that recovers panics, logs errors, and serializes runs, so a
// failing or slow run never unwinds or blocks the timer itself.
type Scheduler struct {
	job    func() error
	logger *log.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu    sync.Mutex // guards state and cron fields
	state State

	runMu  sync.Mutex // serializes job executions
	manual sync.WaitGroup
}

// New creates a Scheduler around the given job.
func New(job func() error, logger *log.Logger) *Scheduler {
	return &Scheduler{
		job:    job,
		logger: logger,
		state:  StateIdle,
	}
}

// Start arms the schedule from configuration: either a fixed interval or a
// five-field cron expression, chosen by cfg.UseCronSchedule. Starting again
// replaces the previous job definition rather than duplicating it.
func (s *Scheduler) Start(cfg shared.SchedulerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Remove(s.entryID)
	} else {
		s.cron = cron.New(cron.WithLogger(cron.PrintfLogger(s.logger)))
	}

	guarded := cron.FuncJob(s.runGuarded)

	if cfg.UseCronSchedule {
		id, err := s.cron.AddJob(cfg.CronSchedule, guarded)
		if err != nil {
			return fmt.Errorf("%w: bad cron_schedule %q: %v", shared.ErrInvalidConfig, cfg.CronSchedule, err)
		}
		s.entryID = id
		s.logger.Info("scheduler armed", "cron", cfg.CronSchedule)
	} else {
		s.entryID = s.cron.Schedule(cron.Every(cfg.CheckInterval()), guarded)
		s.logger.Info("scheduler armed", "interval", cfg.CheckInterval())
	}

	s.cron.Start()
	s.state = StateRunning

	return nil
}

// RunNow executes the job immediately in the background without touching the
// next scheduled fire time. A run already in flight finishes first; the
// manual run waits behind the same guard.
func (s *Scheduler) RunNow() {
	s.logger.Info("manual check triggered")
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.runGuarded()
	}()
}

// Running reports whether the schedule is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// NextRun returns the next scheduled fire time, or nil when the scheduler is
// not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || s.cron == nil {
		return nil
	}

	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// Stop disarms the schedule and waits for any in-flight run, scheduled or
// manual, to finish before returning. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("stopping scheduler")
	<-c.Stop().Done()
	s.manual.Wait()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

// runGuarded is the supervisor wrapper around the job body: panics are
// recovered and errors logged so the timer loop is never unwound, and the
// mutex keeps at most one run in flight.
func (s *Scheduler) runGuarded() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scheduled check", "panic", r)
		}
	}()

	s.runMu.Lock()
	defer s.runMu.Unlock()

	if err := s.job(); err != nil {
		s.logger.Error("scheduled check failed", "error", err)
	}
}
