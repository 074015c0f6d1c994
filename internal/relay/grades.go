package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pronote2telegram/internal/history"
	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

// gradesSnapshot names the raw dump of the last fetched grades.
const gradesSnapshot = "grades"

// Grades notifies new grades of the current period in one message.
type Grades struct{ d Deps }

func (p *Grades) Name() string { return "grades" }

func (p *Grades) Process(ctx context.Context, s *portal.Session) error {
	log := p.d.logger(p.Name())
	now := p.d.now()

	period, err := s.DefaultPeriod(portal.TabGrades)
	if err != nil {
		return err
	}
	log.Info("period selected", logx.String("period", period.Name))

	set, err := loadSet(ctx, p.d.Store, history.Grades.Category)
	if err != nil {
		return err
	}

	overview, err := p.d.Portal.Grades(ctx, s, period)
	if err != nil {
		return fmt.Errorf("fetch grades: %w", err)
	}
	if p.d.Store != nil {
		if err := p.d.Store.SaveSnapshot(ctx, gradesSnapshot, overview.Grades); err != nil {
			log.Warn("grades snapshot not saved", logx.Err(err))
		}
	}

	fresh := history.Diff(overview.Grades, set, history.Grades, now, p.key)
	log.Info("grades fetched", logx.Int("total", len(overview.Grades)), logx.Int("new", len(fresh)))

	if len(fresh) > 0 {
		lines := make([]string, 0, len(fresh))
		for _, g := range fresh {
			line := p.d.Format.GradeLine(g)
			log.Info("new grade", logx.String("grade", line))
			lines = append(lines, line)
		}
		loc := p.d.Format.Locale()
		subject := loc.Plural(loc.NewGrade, len(lines))
		if err := p.d.Sink.SendMessage(ctx, childName(s), subject, strings.Join(lines, "\n"), false); err != nil {
			return err
		}
	}
	return saveSet(ctx, p.d.Store, history.Grades.Category, set)
}

// key is "{dd/MM} {subject}[ ({comment})] - {date} - {value}". The value
// part never depends on the display locale.
func (p *Grades) key(g portal.Grade) (string, time.Time) {
	return p.d.Format.GradeName(g) + " - " + isoKey(g.Date) + " - " + keyValue(g), g.Date
}

func keyValue(g portal.Grade) string {
	switch g.Value.Kind {
	case portal.GradeValue:
		v := strconv.FormatFloat(g.Value.Points, 'f', -1, 64)
		if g.OutOf.Kind == portal.GradeValue {
			v += "/" + strconv.FormatFloat(g.OutOf.Points, 'f', -1, 64)
		}
		return v
	case portal.GradeAbsent:
		return "Absent"
	default:
		return ""
	}
}
