package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Config holds the background job settings. Spec accepts standard cron
// expressions and the @every duration form.
type Config struct {
	Spec string `envconfig:"SPEC" default:"@every 5m"`
}

// Job is one recurring task. Errors are logged, never fatal.
type Job func(ctx context.Context) error

// Scheduler runs recurring jobs on cron schedules. Jobs inherit the context
// passed to Start.
type Scheduler struct {
	cron *cron.Cron

	ctx context.Context
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		ctx:  context.Background(),
	}
}

func (s *Scheduler) Add(spec string, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			log.Warn().Err(err).Str("job", name).Msg("scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	return nil
}

// Start runs the schedule until ctx is cancelled, then waits for in-flight
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}
