package scheduler

import (
	"testing"
)

type fakeLimiter struct {
	sweeps int
	size   int
}

func (f *fakeLimiter) Sweep() int {
	f.sweeps++
	return 2
}

func (f *fakeLimiter) Size() int {
	return f.size
}

func TestSchedulerStartStop(t *testing.T) {
	limiter := &fakeLimiter{size: 3}
	s := NewScheduler(limiter)

	if err := s.Start(); err != nil {
		t.Fatalf("Expected scheduler to start, got %v", err)
	}
	defer s.Stop()

	// gocron runs the job once immediately on StartAsync; the exact count
	// is timing dependent, so only assert the scheduler is wired.
	if s.scheduler == nil {
		t.Fatal("Expected gocron scheduler to exist")
	}
}
