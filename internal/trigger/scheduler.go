// Package trigger runs background batch jobs on cron schedules. The chat
// pipeline itself never depends on it; slow side work (logo enrichment)
// lives here so it cannot stall a request.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 10 * time.Minute

// Job is a named unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages cron-based job execution.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates an empty scheduler. Cron expressions use the
// standard 5-field format: minute hour day-of-month month day-of-week.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Register adds a job on the given cron schedule.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		log.Info().Str("job", job.Name()).Msg("scheduled_job_started")
		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Str("job", job.Name()).Msg("scheduled_job_failed")
			return
		}
		log.Info().Str("job", job.Name()).Msg("scheduled_job_completed")
	})
	if err != nil {
		return fmt.Errorf("registering cron %q for job %s: %w", spec, job.Name(), err)
	}
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries returns the number of registered cron entries (for testing).
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
