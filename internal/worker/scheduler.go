package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of periodic work. Errors are logged, never fatal.
type Job func(ctx context.Context) error

type scheduledJob struct {
	name     string
	spec     string
	schedule cron.Schedule
	run      Job
}

// Scheduler runs named jobs on cron specs ("@every 1m", "0 3 * * *").
type Scheduler struct {
	mu     sync.Mutex
	jobs   []scheduledJob
	logger *zerolog.Logger
}

func NewScheduler(logger *zerolog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Add validates spec and registers the job. Jobs added after Start are ignored.
func (s *Scheduler) Add(name, spec string, job Job) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, scheduledJob{name: name, spec: spec, schedule: schedule, run: job})
	return nil
}

// Start runs the registered jobs until ctx is done, then waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]scheduledJob(nil), s.jobs...)
	s.mu.Unlock()

	if len(jobs) == 0 {
		s.logger.Info().Msg("Scheduler has no jobs")
		return
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))
	for _, j := range jobs {
		j := j
		c.Schedule(j.schedule, cron.FuncJob(func() {
			if err := j.run(ctx); err != nil {
				s.logger.Error().Err(err).Str("job", j.name).Msg("Scheduled job failed")
			}
		}))
		s.logger.Info().Str("job", j.name).Str("schedule", j.spec).Msg("Job scheduled")
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
