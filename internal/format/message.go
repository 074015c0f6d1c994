// Package format renders relay notifications.
//
// Two dialects are produced: MarkdownV2 for category messages and HTML for
// rich posts. Untrusted portal text is always escaped through pkg/tgui.
package format

import (
	"strings"
	"time"

	"pronote2telegram/internal/transport"
	"pronote2telegram/pkg/tgui"
)

// Brand prefixes every message so several monitored children can share a
// chat.
const Brand = "PRONOTE"

// Message renders a MarkdownV2 message: a bold underlined brand line naming
// the child, the bold subject, then body. body is escaped unless isMarkdown.
func Message(child, subject, body string, isMarkdown bool) tgui.M {
	var m tgui.M
	if isMarkdown {
		m = tgui.RawMD(body)
	} else {
		m = tgui.EscapeMD(body)
	}
	header := tgui.BoldMD(tgui.UnderlineMD(tgui.EscapeMD(Brand + " - " + child)))
	return header + "\n" + tgui.BoldMD(tgui.EscapeMD(subject)) + "\n" + m
}

// Formatter renders domain items with a locale and time zone.
type Formatter struct {
	loc *Locale
	tz  *time.Location
}

func New(locale string, tz *time.Location) *Formatter {
	if tz == nil {
		tz = time.Local
	}
	return &Formatter{loc: LocaleFor(locale), tz: tz}
}

func (f *Formatter) Locale() *Locale { return f.loc }

func (f *Formatter) local(t time.Time) time.Time { return t.In(f.tz) }

// Post renders the HTML dialect of a rich post. The body is sanitized down
// to the tags Telegram accepts.
func (f *Formatter) Post(p transport.Post) tgui.H {
	lines := []tgui.H{tgui.B(Brand + " - " + p.Child)}

	var origin strings.Builder
	origin.WriteString(p.Type)
	if p.From != "" {
		if origin.Len() > 0 {
			origin.WriteString(" ")
		}
		origin.WriteString(f.loc.From + " " + p.From)
	}
	lines = append(lines, tgui.Esc(origin.String()))

	if !p.Date.IsZero() {
		d := f.local(p.Date)
		lines = append(lines, tgui.Esc(f.loc.DatePrefix+" "+d.Format("02/01/06")+" "+f.loc.At+" "+d.Format("15:04:05")))
	}
	lines = append(lines, tgui.B(p.Subject), tgui.SanitizeHTML(p.HTML))
	return tgui.JoinH("\n", lines...)
}

// OtherObjects describes attachments that have no Telegram upload method.
func (f *Formatter) OtherObjects(kinds []string) string {
	return f.loc.objectsOfType(len(kinds), strings.Join(kinds, ","))
}
