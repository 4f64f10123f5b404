// Package jobs runs the marketplace's periodic work on cron schedules.
// Each run takes a shared lock so only one replica executes a job at a time.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"instainstru/internal/kv"
	"instainstru/internal/metrics"
)

// Func performs one run of a job and reports how many items it processed.
type Func func(ctx context.Context) (int, error)

// Job is a named unit of periodic work.
type Job struct {
	Name string
	Spec string
	Run  Func
}

// Scheduler executes jobs on their cron specs.
type Scheduler struct {
	cron    *cron.Cron
	locker  kv.Locker
	lockTTL time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
	ctx     context.Context
}

// New creates a Scheduler. A nil locker runs every job unguarded, which is
// only safe with a single worker.
func New(locker kv.Locker, lockTTL time.Duration, m *metrics.Metrics, logger zerolog.Logger, loc *time.Location) *Scheduler {
	cl := cronLogger{log: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		locker:  locker,
		lockTTL: lockTTL,
		metrics: m,
		log:     logger,
		ctx:     context.Background(),
	}
}

// Add schedules job. It fails when the spec does not parse.
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() { s.Run(s.ctx, job) })
	return err
}

// Start begins dispatching. Runs use ctx, so cancelling it aborts in-flight work.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop prevents new runs and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Run executes job once under its lock, recording the outcome.
func (s *Scheduler) Run(ctx context.Context, job Job) {
	start := time.Now()
	log := s.log.With().Str("job", job.Name).Logger()

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, "job:"+job.Name, s.lockTTL)
		if err != nil {
			log.Error().Err(err).Msg("job lock failed")
			s.metrics.JobRun(job.Name, "error", time.Since(start))
			return
		}
		if release == nil {
			log.Debug().Msg("job already running elsewhere")
			s.metrics.JobRun(job.Name, "skipped", 0)
			return
		}
		defer func() {
			if err := release(context.Background()); err != nil && !errors.Is(err, kv.ErrNotHeld) {
				log.Warn().Err(err).Msg("job unlock failed")
			}
		}()
	}

	n, err := job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Int("processed", n).Dur("took", elapsed).Msg("job failed")
		s.metrics.JobRun(job.Name, "error", elapsed)
		return
	}
	log.Info().Int("processed", n).Dur("took", elapsed).Msg("job finished")
	s.metrics.JobRun(job.Name, "ok", elapsed)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
