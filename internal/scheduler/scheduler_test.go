package scheduler

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tidalwatch/internal/shared"
)

func intervalConfig(minutes int) shared.SchedulerConfig {
	return shared.SchedulerConfig{CheckIntervalMinutes: minutes}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateStopped, "stopped"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	s := New(func() error { return nil }, shared.NewLogger(io.Discard))

	if s.Running() {
		t.Error("fresh scheduler should not be running")
	}
	if s.NextRun() != nil {
		t.Error("expected nil next run before start")
	}

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if !s.Running() {
		t.Error("expected running after start")
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("expected next run time while running")
	}
	if until := time.Until(*next); until <= 0 || until > 31*time.Minute {
		t.Errorf("expected next run within interval, got %s away", until)
	}

	s.Stop()
	if s.Running() {
		t.Error("expected not running after stop")
	}
	if s.NextRun() != nil {
		t.Error("expected nil next run after stop")
	}

	// Stop is safe to call again.
	s.Stop()
}

func TestSchedulerBadCronSchedule(t *testing.T) {
	s := New(func() error { return nil }, shared.NewLogger(io.Discard))

	cfg := shared.SchedulerConfig{UseCronSchedule: true, CronSchedule: "not a cron"}
	err := s.Start(cfg)
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSchedulerCronSchedule(t *testing.T) {
	s := New(func() error { return nil }, shared.NewLogger(io.Discard))

	cfg := shared.SchedulerConfig{UseCronSchedule: true, CronSchedule: "*/30 * * * *"}
	if err := s.Start(cfg); err != nil {
		t.Fatalf("failed to start with cron schedule: %v", err)
	}
	defer s.Stop()

	if s.NextRun() == nil {
		t.Error("expected next run time for cron schedule")
	}
}

func TestRunNow(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	s := New(func() error {
		mu.Lock()
		defer mu.Unlock()
		runs++
		return nil
	}, shared.NewLogger(io.Discard))

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatal(err)
	}

	s.RunNow()
	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	})

	s.Stop()
}

func TestJobErrorDoesNotKillSchedule(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	s := New(func() error {
		mu.Lock()
		defer mu.Unlock()
		runs++
		return errors.New("check failed")
	}, shared.NewLogger(io.Discard))

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	s.RunNow()
	s.manual.Wait()

	if !s.Running() {
		t.Error("expected scheduler still running after job error")
	}

	s.RunNow()
	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 2
	})
}

func TestRunNowRecoversPanic(t *testing.T) {
	s := New(func() error { panic("boom") }, shared.NewLogger(io.Discard))

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatal(err)
	}

	s.RunNow()
	s.manual.Wait()

	if !s.Running() {
		t.Error("expected scheduler to survive a panicking job")
	}
	s.Stop()
}

func TestStopWaitsForManualRun(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	s := New(func() error {
		<-release
		close(done)
		return nil
	}, shared.NewLogger(io.Discard))

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatal(err)
	}

	s.RunNow()
	time.Sleep(50 * time.Millisecond)
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	s.Stop()

	select {
	case <-done:
	default:
		t.Error("expected Stop to wait for the in-flight run")
	}
}

func TestRestartReplacesSchedule(t *testing.T) {
	s := New(func() error { return nil }, shared.NewLogger(io.Discard))

	if err := s.Start(intervalConfig(30)); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(intervalConfig(60)); err != nil {
		t.Fatalf("failed to re-arm: %v", err)
	}
	defer s.Stop()

	next := s.NextRun()
	if next == nil {
		t.Fatal("expected next run after re-arm")
	}
	if until := time.Until(*next); until <= 31*time.Minute {
		t.Errorf("expected re-armed interval of 60m, next run only %s away", until)
	}
}
