package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pronote2telegram/internal/format"
	"pronote2telegram/internal/history"
	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

// News notifies new notebook observations (forgotten material, remarks...)
// in one message.
type News struct{ d Deps }

func (p *News) Name() string { return "news" }

func (p *News) Process(ctx context.Context, s *portal.Session) error {
	log := p.d.logger(p.Name())
	now := p.d.now()

	period, err := s.DefaultPeriod(portal.TabNotebook)
	if err != nil {
		return err
	}

	set, err := loadSet(ctx, p.d.Store, history.Notebook.Category)
	if err != nil {
		return err
	}

	nb, err := p.d.Portal.Notebook(ctx, s, period)
	if err != nil {
		return fmt.Errorf("fetch notebook: %w", err)
	}

	fresh := history.Diff(nb.Observations, set, history.Notebook, now, p.key)
	log.Info("notebook fetched", logx.String("period", period.Name), logx.Int("total", len(nb.Observations)), logx.Int("new", len(fresh)))

	if len(fresh) > 0 {
		lines := make([]string, 0, len(fresh))
		for _, o := range fresh {
			lines = append(lines, p.d.Format.ObservationLine(o))
		}
		loc := p.d.Format.Locale()
		subject := loc.Plural(loc.NewObservation, len(lines))
		if err := p.d.Sink.SendMessage(ctx, childName(s), subject, strings.Join(lines, "\n"), false); err != nil {
			return err
		}
	}
	return saveSet(ctx, p.d.Store, history.Notebook.Category, set)
}

// key is "{name}[ - {subject}] - {dd/MM}".
func (p *News) key(o portal.Observation) (string, time.Time) {
	return format.ObservationName(o) + " - " + p.d.Format.ObservationDate(o), o.Date
}
