package relay

import (
	"context"
	"fmt"
	"time"

	"pronote2telegram/internal/history"
	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

// Timetable notifies cancelled lessons and study-hall substitutions, one
// message per lesson.
type Timetable struct{ d Deps }

func (p *Timetable) Name() string { return "timetable" }

func (p *Timetable) Process(ctx context.Context, s *portal.Session) error {
	log := p.d.logger(p.Name())
	now := p.d.now()
	week := p.d.week(now)

	set, err := loadSet(ctx, p.d.Store, history.Timetable.Category)
	if err != nil {
		return err
	}

	classes, err := p.d.Portal.Timetable(ctx, s, week)
	if err != nil {
		return fmt.Errorf("fetch timetable: %w", err)
	}

	fresh := history.Diff(changedLessons(classes), set, history.Timetable, now, lessonKey)
	log.Info("timetable fetched", logx.Int("week", week), logx.Int("classes", len(classes)), logx.Int("new", len(fresh)))

	for _, c := range fresh {
		subject, body, ok := p.d.Format.Lesson(c)
		if !ok {
			continue
		}
		log.Info("lesson changed", logx.String("subject", c.Subject), logx.Time("start", c.Start), logx.Bool("cancelled", c.Cancelled))
		if err := p.d.Sink.SendMessage(ctx, childName(s), subject, body, false); err != nil {
			return err
		}
	}
	return saveSet(ctx, p.d.Store, history.Timetable.Category, set)
}

// changedLessons keeps the lessons that were cancelled or replaced by a
// study hall, in timetable order.
func changedLessons(classes []portal.TimetableClass) []portal.TimetableClass {
	var out []portal.TimetableClass
	for _, c := range classes {
		if c.Kind != portal.ClassLesson {
			continue
		}
		if c.Cancelled || c.StudyHall() {
			out = append(out, c)
		}
	}
	return out
}

func lessonKey(c portal.TimetableClass) (string, time.Time) {
	return c.Subject + " - " + isoKey(c.Start), c.Start
}
