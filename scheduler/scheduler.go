// Package scheduler runs the service's periodic housekeeping with gocron:
// sweeping idle rate-limiter buckets and keeping the bucket gauge current.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/metrics"
)

// SweepableLimiter is the subset of the rate limiter the scheduler needs.
type SweepableLimiter interface {
	Sweep() int
	Size() int
}

// Scheduler owns the gocron instance driving housekeeping jobs.
type Scheduler struct {
	limiter   SweepableLimiter
	scheduler *gocron.Scheduler
}

// NewScheduler creates a scheduler over the given rate limiter.
func NewScheduler(limiter SweepableLimiter) *Scheduler {
	return &Scheduler{
		limiter:   limiter,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start registers the housekeeping jobs and begins running them async.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(30).Minutes().Do(func() {
		removed := s.limiter.Sweep()
		remaining := s.limiter.Size()
		metrics.RateLimiterBucketsTotal.Set(float64(remaining))
		if removed > 0 {
			logging.Debug("Swept idle rate limiter buckets", "removed", removed, "remaining", remaining)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rate limiter sweep: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
