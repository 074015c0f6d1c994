package relay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

// Assignments sends the homework still due this week. It keeps no history:
// the week window and the done/deadline filters make reruns idempotent.
type Assignments struct{ d Deps }

func (p *Assignments) Name() string { return "assignments" }

func (p *Assignments) Process(ctx context.Context, s *portal.Session) error {
	log := p.d.logger(p.Name())
	now := p.d.now()
	week := p.d.week(now)

	items, err := p.d.Portal.Assignments(ctx, s, week, week)
	if err != nil {
		return fmt.Errorf("fetch assignments: %w", err)
	}

	todo := pendingAssignments(items, startOfDay(now))
	log.Info("assignments fetched", logx.Int("week", week), logx.Int("total", len(items)), logx.Int("pending", len(todo)))
	if len(todo) == 0 {
		return nil
	}

	for _, a := range todo {
		log.Debug("pending", logx.String("subject", a.Subject), logx.Time("deadline", a.Deadline))
	}
	body := p.d.Format.Assignments(todo)
	return p.d.Sink.SendMessage(ctx, childName(s), p.d.Format.Locale().Homework, body.String(), true)
}

// pendingAssignments keeps the assignments not done and due after today
// started, soonest deadline first.
func pendingAssignments(items []portal.Assignment, today time.Time) []portal.Assignment {
	var out []portal.Assignment
	for _, a := range items {
		if !a.Done && a.Deadline.After(today) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
