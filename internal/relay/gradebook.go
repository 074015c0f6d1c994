package relay

import (
	"context"
	"strings"
	"time"

	"pronote2telegram/internal/history"
	"pronote2telegram/internal/portal"
	"pronote2telegram/internal/transport"
	logx "pronote2telegram/pkg/logx"
)

// Gradebook sends the report card PDF of the current period the first time
// it becomes available. Portal failures are logged and never fail the run.
type Gradebook struct{ d Deps }

func (p *Gradebook) Name() string { return "gradebook" }

func (p *Gradebook) Process(ctx context.Context, s *portal.Session) error {
	log := p.d.logger(p.Name())
	now := p.d.now()

	period, err := s.DefaultPeriod(portal.TabGradebook)
	if err != nil {
		return err
	}
	log.Info("period selected", logx.String("period", period.Name))

	url, err := p.d.Portal.GradebookURL(ctx, s, period)
	if err != nil {
		log.Warn("gradebook not available", logx.Err(err))
		return nil
	}
	log.Info("gradebook url", logx.String("url", url))

	set, err := loadSet(ctx, p.d.Store, history.Gradebook.Category)
	if err != nil {
		return err
	}
	fresh := history.Diff([]portal.Period{period}, set, history.Gradebook, now, func(pr portal.Period) (string, time.Time) {
		return pr.Name, now
	})
	if len(fresh) == 0 {
		return saveSet(ctx, p.d.Store, history.Gradebook.Category, set)
	}

	pdf, err := p.d.Portal.Download(ctx, s, url)
	if err != nil {
		log.Warn("gradebook download failed", logx.Err(err))
		return nil
	}

	post := transport.Post{
		Child:   childName(s),
		Type:    p.d.Format.Locale().Gradebook,
		Date:    now,
		Subject: period.Name,
		Attachments: []transport.Attachment{{
			Name: fileName(period.Name) + ".pdf",
			Kind: transport.MediaDocument,
			Type: "application/pdf",
			Data: pdf,
		}},
	}
	if err := p.d.Sink.SendPost(ctx, post); err != nil {
		return err
	}
	return saveSet(ctx, p.d.Store, history.Gradebook.Category, set)
}

func fileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "gradebook"
	}
	return s
}
