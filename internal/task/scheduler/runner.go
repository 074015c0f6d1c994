package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	logx "pronote2telegram/pkg/logx"
)

// Job is one scheduled run. Its error is logged; the schedule goes on.
type Job func(ctx context.Context) error

type Config struct {
	Spec     ParsedSpec
	Location *time.Location
	// Immediate runs the job once right away, before the first tick.
	Immediate bool
}

type Runner struct {
	cfg Config
	log logx.Logger
	job Job
}

func New(cfg Config, job Job, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Runner{cfg: cfg, job: job, log: log.With(logx.String("comp", "scheduler"))}
}

// Run blocks until ctx is cancelled, then waits for a running job to finish.
func (r *Runner) Run(ctx context.Context) error {
	sched, err := r.cfg.Spec.Schedule()
	if err != nil {
		return fmt.Errorf("schedule %q: %w", r.cfg.Spec.String(), err)
	}

	cl := cronLogger{log: r.log}
	c := cron.New(
		cron.WithLocation(r.cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(sched, cron.FuncJob(func() { r.runJob(ctx) }))

	if r.cfg.Immediate {
		r.runJob(ctx)
	}

	c.Start()
	next := sched.Next(time.Now().In(r.cfg.Location))
	r.log.Info("scheduler started", logx.String("spec", r.cfg.Spec.String()), logx.String("kind", r.cfg.Spec.Kind.String()), logx.Time("next", next))

	<-ctx.Done()
	r.log.Info("scheduler stopping")
	<-c.Stop().Done()
	return nil
}

func (r *Runner) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := r.job(ctx); err != nil {
		r.log.Error("scheduled run failed", logx.Err(err), logx.Duration("took", time.Since(start)))
		return
	}
	r.log.Info("scheduled run done", logx.Duration("took", time.Since(start)))
}

// cronLogger routes robfig/cron's logging to logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
