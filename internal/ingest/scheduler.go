package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner performs one sync pass.
type Runner interface {
	Run(ctx context.Context) (SyncResult, error)
}

// cronParser accepts standard five-field specs, an optional leading
// seconds field and descriptors such as "@every 5m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs a Runner on a cron schedule. A run that outlasts its
// interval delays the next one instead of overlapping it.
type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger

	// ctx is the context handed to each run; set by Run.
	ctx context.Context
	job cron.Job
}

// NewScheduler validates spec and prepares a scheduler for runner.
func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		runner:   runner,
		schedule: schedule,
		spec:     spec,
		logger:   logger.With(slog.String("component", "sync_scheduler")),
		ctx:      context.Background(),
	}

	cl := cronLogger{logger: s.logger}
	s.job = cron.NewChain(cron.Recover(cl), cron.DelayIfStillRunning(cl)).Then(cron.FuncJob(s.runOnce))
	return s, nil
}

// Run starts the schedule and blocks until ctx is cancelled. On return no
// sync pass is running.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx

	c := cron.New(cron.WithParser(cronParser), cron.WithLogger(cronLogger{logger: s.logger}))
	c.Schedule(s.schedule, s.job)
	c.Start()

	s.logger.Info("sync scheduler started", slog.String("schedule", s.spec))

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()

	s.logger.Info("sync scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		s.logger.Error("sync run failed", slog.String("error", err.Error()))
	}
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
