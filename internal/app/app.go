// Package app wires one relay run: configuration, lock, portal login and
// the category processors. In schedule mode it repeats the run on each tick.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"pronote2telegram/internal/config"
	"pronote2telegram/internal/format"
	"pronote2telegram/internal/lockfile"
	"pronote2telegram/internal/portal"
	"pronote2telegram/internal/portal/bridge"
	"pronote2telegram/internal/relay"
	"pronote2telegram/internal/storage"
	"pronote2telegram/internal/task/scheduler"
	"pronote2telegram/internal/transport"
	"pronote2telegram/internal/transport/telegram"
	logx "pronote2telegram/pkg/logx"
)

// ErrLogin wraps every portal login failure. No category can run without a
// session, so it aborts the run.
var ErrLogin = errors.New("portal login failed")

type Options struct {
	Home    string
	Toggles config.Toggles
	// Schedule overrides config.schedule when set.
	Schedule string

	// Portal and Sink replace the implementations built from the config.
	Portal portal.Client
	Sink   transport.Sink
	Now    func() time.Time
}

type App struct {
	opts Options
	log  logx.Logger
	logs *logx.Service
}

// New creates the app with console logging; the configured logging is
// applied once the config is read.
func New(opts Options) *App {
	logs, log := logx.New(logx.Config{Level: "info", Console: true})
	a := newApp(opts, log)
	a.logs = logs
	return a
}

// NewWithLogger is New for embedders and tests that own the logger. The
// logging section of the config is ignored.
func NewWithLogger(opts Options, log logx.Logger) *App {
	if log.IsZero() {
		log = logx.Nop()
	}
	return newApp(opts, log)
}

func newApp(opts Options, log logx.Logger) *App {
	if strings.TrimSpace(opts.Home) == "" {
		opts.Home = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{opts: opts, log: log.With(logx.String("comp", "app"))}
}

func (a *App) Close() error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}

// Run performs one run, or keeps running on the configured schedule until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	spec := strings.TrimSpace(a.opts.Schedule)
	if spec == "" {
		spec = strings.TrimSpace(cfg.Schedule)
	}
	if spec == "" {
		return a.run(ctx, cfg)
	}

	parsed, err := scheduler.ParseSchedule(spec)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	r := scheduler.New(scheduler.Config{Spec: parsed, Location: loc, Immediate: true}, a.RunOnce, a.log)
	sdNotify(a.log, daemon.SdNotifyReady)
	defer sdNotify(a.log, daemon.SdNotifyStopping)
	return r.Run(ctx)
}

// RunOnce reloads the config and performs a single run.
func (a *App) RunOnce(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	return a.run(ctx, cfg)
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.Home)
	if err != nil {
		return nil, err
	}
	cfg.ApplyToggles(a.opts.Toggles)
	if a.logs != nil {
		a.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Console,
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
	}
	return cfg, nil
}

func (a *App) run(ctx context.Context, cfg *config.Config) error {
	log := a.log
	start := a.opts.Now()

	if !cfg.Run.Any() {
		log.Warn("no category enabled; set run.* in the config or pass a category flag")
	}

	if !cfg.NoLock {
		lock, err := lockfile.Acquire(cfg.Home, lockfile.DefaultStale, start)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				log.Warn("lock not released", logx.String("path", lock.Path()), logx.Err(err))
			}
		}()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	yearStart, err := cfg.YearStart(loc)
	if err != nil {
		return err
	}
	f := format.New(cfg.LocaleOrDefault(), loc)

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("storage close failed", logx.Err(err))
		}
	}()

	client, err := a.portalClient(cfg)
	if err != nil {
		return err
	}
	sink, err := a.sink(cfg, f)
	if err != nil {
		return err
	}

	log.Info("login")
	sess, err := portal.Login(ctx, client, cfg.CredentialsPath())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogin, err)
	}
	log.Info("logged in", logx.String("child", sess.User.Name))

	procs, err := relay.New(relay.Deps{
		Portal:    client,
		Sink:      sink,
		Store:     store,
		Format:    f,
		Log:       log,
		Location:  loc,
		YearStart: yearStart,
		Now:       a.opts.Now,
	}, relay.Enabled{
		Assignments: cfg.Run.Assignments,
		Timetable:   cfg.Run.Timetable,
		Grades:      cfg.Run.Grades,
		News:        cfg.Run.News,
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return err
		}
		plog := log.With(logx.String("category", p.Name()))
		t0 := time.Now()
		plog.Info("category started")
		if err := p.Process(ctx, sess); err != nil {
			failed++
			plog.Error("category failed", logx.Err(err), logx.Duration("took", time.Since(t0)))
			continue
		}
		plog.Info("category done", logx.Duration("took", time.Since(t0)))
	}

	log.Info("run done", logx.Int("categories", len(procs)), logx.Int("failed", failed), logx.Duration("took", a.opts.Now().Sub(start)))
	return nil
}

func (a *App) portalClient(cfg *config.Config) (portal.Client, error) {
	if a.opts.Portal != nil {
		return a.opts.Portal, nil
	}
	timeout, err := cfg.Portal.TimeoutOrDefault()
	if err != nil {
		return nil, err
	}
	return bridge.New(bridge.Config{URL: cfg.Portal.URL, Timeout: timeout}, a.log.With(logx.String("comp", "portal")))
}

func (a *App) sink(cfg *config.Config, f *format.Formatter) (transport.Sink, error) {
	if a.opts.Sink != nil {
		return a.opts.Sink, nil
	}
	ts, err := cfg.Telegram.Settings()
	if err != nil {
		return nil, err
	}
	return telegram.New(telegram.Config{
		Token:      ts.Token,
		ChatID:     ts.ChatID,
		APIURL:     ts.APIURL,
		Throttle:   ts.Throttling,
		Timeout:    ts.Timeout,
		RetryMax:   ts.RetryMax,
		FirstRetry: telegram.DefaultFirstRetry,
		RetryDelay: telegram.DefaultRetryDelay,
		GroupPause: telegram.DefaultGroupPause,
	}, f, a.log)
}
