package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pronote2telegram/internal/app"
	"pronote2telegram/internal/config"
	"pronote2telegram/internal/lockfile"
	logx "pronote2telegram/pkg/logx"
)

// Exit codes.
const (
	exitOK       = 0
	exitFatal    = 1
	exitNotFound = 404 // missing config or lock held by another run
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "init" {
		os.Exit(runInit(ctx, os.Args[2:]))
	}
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("pronote2telegram", flag.ContinueOnError)
	var (
		home     string
		schedule string
		toggles  config.Toggles
	)
	fs.StringVar(&home, "home", ".", "directory holding config, login.json and history")
	fs.BoolVar(&toggles.Assignments, "assignments", false, "relay this week's homework")
	fs.BoolVar(&toggles.Timetable, "timetable", false, "relay cancelled lessons and study halls")
	fs.BoolVar(&toggles.Grades, "grades", false, "relay new grades and the gradebook")
	fs.BoolVar(&toggles.News, "news", false, "relay new notebook observations")
	fs.StringVar(&schedule, "schedule", "", "keep running and repeat on this schedule (cron, @every, duration or HH:MM)")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	a := app.New(app.Options{Home: home, Toggles: toggles, Schedule: schedule})
	defer a.Close()

	log := logx.NewConsole("INFO")
	log.Info("pronote2telegram", logx.String("home", home))

	err := a.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info("done")
		return exitOK
	case errors.Is(err, config.ErrNotFound), errors.Is(err, lockfile.ErrLocked):
		log.Error("aborting", logx.Err(err))
		return exitNotFound
	default:
		log.Error("fatal", logx.Err(err))
		return exitFatal
	}
}

func runInit(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("pronote2telegram init", flag.ContinueOnError)
	var opts app.EnrollOptions
	fs.StringVar(&opts.Home, "home", ".", "directory where login.json is written")
	fs.StringVar(&opts.QRFile, "qr", "", "JSON file with the decoded portal QR code")
	fs.StringVar(&opts.PIN, "pin", "", "4-digit PIN chosen when generating the QR code")
	fs.StringVar(&opts.PortalURL, "portal", "", "portal bridge URL (defaults to portal.url of the config)")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if opts.QRFile == "" || opts.PIN == "" {
		fmt.Fprintln(os.Stderr, "usage: pronote2telegram init --qr <file> --pin <pin> [--home dir] [--portal url]")
		return exitFatal
	}

	log := logx.NewConsole("INFO")
	if err := app.Enroll(ctx, opts, nil, log); err != nil {
		log.Error("enrollment failed", logx.Err(err))
		return exitFatal
	}
	return exitOK
}
