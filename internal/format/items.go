package format

import (
	"strconv"
	"strings"

	"pronote2telegram/internal/portal"
	"pronote2telegram/pkg/tgui"
)

// Assignments renders the homework digest: one block per assignment with a
// bold "[weekday dd] subject" header, the description and one link line per
// attachment.
func (f *Formatter) Assignments(items []portal.Assignment) tgui.M {
	var b strings.Builder
	for _, a := range items {
		d := f.local(a.Deadline)
		when := f.loc.Weekday(d) + " " + d.Format("02")
		b.WriteString(string(tgui.BoldMD(tgui.EscapeMD("[" + when + "] " + a.Subject))))
		b.WriteString("\n")
		b.WriteString(string(tgui.HTMLToMD(a.Description)))
		b.WriteString("\n")
		for _, at := range a.Attachments {
			b.WriteString("\n")
			b.WriteString(string(attachmentMD(at)))
			b.WriteString("\n")
		}
	}
	return tgui.M(b.String())
}

func attachmentMD(at portal.Attachment) tgui.M {
	switch at.Kind {
	case portal.AttachmentLink, portal.AttachmentFile:
		return tgui.LinkMD(at.Name, at.URL)
	default:
		return tgui.EscapeMD(at.Name)
	}
}

// When renders a lesson start as "weekday at HH:mm".
func (f *Formatter) When(c portal.TimetableClass) string {
	d := f.local(c.Start)
	return f.loc.Weekday(d) + " " + f.loc.At + " " + d.Format("15:04")
}

// Lesson returns the subject line and plain body of a timetable change.
// ok is false for classes that are neither cancelled nor a study hall.
func (f *Formatter) Lesson(c portal.TimetableClass) (subject, body string, ok bool) {
	switch {
	case c.Cancelled:
		return f.loc.ClassCancelled, c.Subject + ", " + f.When(c), true
	case c.StudyHall():
		return f.loc.StudyHall, f.When(c), true
	default:
		return "", "", false
	}
}

// Mark renders a grade value: points[/outOf] for a numeric grade, the
// localized label otherwise (e.g. "Absent").
func (f *Formatter) Mark(g portal.Grade) string {
	switch g.Value.Kind {
	case portal.GradeValue:
		v := formatPoints(g.Value.Points)
		if g.OutOf.Kind == portal.GradeValue {
			v += "/" + formatPoints(g.OutOf.Points)
		}
		return v
	case portal.GradeAbsent, portal.GradeExempted, portal.GradeNotGraded, portal.GradeUnfit, portal.GradeUnreturned:
		return f.loc.markLabels[string(g.Value.Kind)]
	default:
		return string(g.Value.Kind)
	}
}

func formatPoints(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) }

// GradeName is "dd/MM subject[ (comment)]".
func (f *Formatter) GradeName(g portal.Grade) string {
	name := f.local(g.Date).Format("02/01") + " " + g.Subject
	if g.Comment != "" {
		name += " (" + g.Comment + ")"
	}
	return name
}

// GradeLine is the notification line for one grade.
func (f *Formatter) GradeLine(g portal.Grade) string {
	return f.GradeName(g) + " - " + f.Mark(g)
}

// ObservationName is "name[ - subject]".
func ObservationName(o portal.Observation) string {
	if o.Subject != "" {
		return o.Name + " - " + o.Subject
	}
	return o.Name
}

// ObservationLine is "dd/MM name[ - subject]".
func (f *Formatter) ObservationLine(o portal.Observation) string {
	return f.local(o.Date).Format("02/01") + " " + ObservationName(o)
}

// ObservationDate is the dd/MM part of an observation.
func (f *Formatter) ObservationDate(o portal.Observation) string {
	return f.local(o.Date).Format("02/01")
}
