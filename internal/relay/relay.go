// Package relay turns portal snapshots into chat notifications.
//
// Each category has its own Processor. A processor fetches one snapshot,
// diffs it against the persisted history of its category, notifies what is
// new and only then saves the updated history, so a failed delivery is
// retried on the next run.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pronote2telegram/internal/format"
	"pronote2telegram/internal/history"
	"pronote2telegram/internal/portal"
	"pronote2telegram/internal/storage"
	"pronote2telegram/internal/transport"
	logx "pronote2telegram/pkg/logx"
)

// Processor handles one category for one run.
type Processor interface {
	Name() string
	Process(ctx context.Context, s *portal.Session) error
}

// Deps is shared by every processor of a run.
type Deps struct {
	Portal portal.Client
	Sink   transport.Sink
	Store  storage.Store
	Format *format.Formatter
	Log    logx.Logger

	// Location is used for "today" and every displayed date. Nil means local.
	Location *time.Location
	// YearStart anchors school week numbers. Zero means September 1st of the
	// current school year.
	YearStart time.Time
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (d Deps) validate() error {
	var errs []error
	if d.Portal == nil {
		errs = append(errs, errors.New("portal client is nil"))
	}
	if d.Sink == nil {
		errs = append(errs, errors.New("sink is nil"))
	}
	if d.Format == nil {
		errs = append(errs, errors.New("formatter is nil"))
	}
	return errors.Join(errs...)
}

func (d Deps) now() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return now().In(d.loc())
}

func (d Deps) loc() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}

func (d Deps) week(now time.Time) int {
	start := d.YearStart
	if start.IsZero() {
		start = portal.SchoolYearStart(now)
	}
	return portal.SchoolWeek(now, start)
}

func (d Deps) logger(name string) logx.Logger {
	l := d.Log
	if l.IsZero() {
		l = logx.Nop()
	}
	return l.With(logx.String("comp", "relay."+name))
}

// childName is the monitored child as shown in message headers.
func childName(s *portal.Session) string {
	if s == nil {
		return ""
	}
	return s.User.Name
}

// isoMillis is the timestamp layout embedded in dedup keys.
const isoMillis = "2006-01-02T15:04:05.000Z"

func isoKey(t time.Time) string { return t.UTC().Format(isoMillis) }

// loadSet reads the persisted history of a category.
func loadSet(ctx context.Context, st storage.Store, category string) (*history.Set, error) {
	if st == nil {
		return history.NewSet(nil), nil
	}
	entries, err := st.LoadHistory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load %s history: %w", category, err)
	}
	return history.NewSet(entries), nil
}

func saveSet(ctx context.Context, st storage.Store, category string, set *history.Set) error {
	if st == nil {
		return nil
	}
	if err := st.SaveHistory(ctx, category, set.Entries()); err != nil {
		return fmt.Errorf("save %s history: %w", category, err)
	}
	return nil
}

// New returns the processors of every enabled category, in run order.
func New(d Deps, en Enabled) ([]Processor, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	var out []Processor
	if en.Assignments {
		out = append(out, &Assignments{d: d})
	}
	if en.Timetable {
		out = append(out, &Timetable{d: d})
	}
	if en.Grades {
		out = append(out, &Grades{d: d}, &Gradebook{d: d})
	}
	if en.News {
		out = append(out, &News{d: d})
	}
	return out, nil
}

// Enabled selects the categories of a run.
type Enabled struct {
	Assignments bool
	Timetable   bool
	Grades      bool
	News        bool
}
