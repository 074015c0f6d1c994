package portal

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoCredentials = errors.New("no stored credentials")
	ErrMissingTab    = errors.New("portal tab not available")
)

// ---- Session ----

type Tab string

const (
	TabGrades    Tab = "grades"
	TabGradebook Tab = "gradebook"
	TabNotebook  Tab = "notebook"
)

type Period struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

type TabInfo struct {
	DefaultPeriod *Period  `json:"defaultPeriod,omitempty"`
	Periods       []Period `json:"periods,omitempty"`
}

// User is the monitored child as seen by the portal.
type User struct {
	Name string          `json:"name"`
	Tabs map[Tab]TabInfo `json:"tabs"`
}

// Session is an authenticated portal handle, valid for one run.
type Session struct {
	Token string `json:"session"`
	User  User   `json:"user"`
}

// DefaultPeriod returns the default period of tab t, or ErrMissingTab.
func (s *Session) DefaultPeriod(t Tab) (Period, error) {
	if s == nil {
		return Period{}, fmt.Errorf("%w: %s (no session)", ErrMissingTab, t)
	}
	info, ok := s.User.Tabs[t]
	if !ok {
		return Period{}, fmt.Errorf("%w: %s", ErrMissingTab, t)
	}
	if info.DefaultPeriod == nil {
		return Period{}, fmt.Errorf("%w: %s has no default period", ErrMissingTab, t)
	}
	return *info.DefaultPeriod, nil
}

// ---- Assignments ----

type AttachmentKind string

const (
	AttachmentLink AttachmentKind = "link"
	AttachmentFile AttachmentKind = "file"
)

type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	Name string         `json:"name"`
	URL  string         `json:"url"`
}

type Assignment struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	// Description is rich text (HTML) as authored in the portal.
	Description string       `json:"description"`
	Deadline    time.Time    `json:"deadline"`
	Done        bool         `json:"done"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ---- Timetable ----

type ClassKind string

const (
	ClassLesson    ClassKind = "lesson"
	ClassActivity  ClassKind = "activity"
	ClassDetention ClassKind = "detention"
)

// StatusStudyHall is the lesson status the portal uses when a class is
// replaced by supervised study.
const StatusStudyHall = "Permanence"

type TimetableClass struct {
	Kind      ClassKind `json:"is"`
	Subject   string    `json:"subject,omitempty"`
	Start     time.Time `json:"startDate"`
	End       time.Time `json:"endDate"`
	Cancelled bool      `json:"canceled,omitempty"`
	Status    string    `json:"status,omitempty"`
}

func (c TimetableClass) StudyHall() bool { return c.Status == StatusStudyHall }

// ---- Grades ----

type GradeKind string

const (
	GradeValue      GradeKind = "grade"
	GradeAbsent     GradeKind = "absent"
	GradeExempted   GradeKind = "exempted"
	GradeNotGraded  GradeKind = "not_graded"
	GradeUnfit      GradeKind = "unfit"
	GradeUnreturned GradeKind = "unreturned"
)

// Mark is a tagged value: Points is only meaningful when Kind is GradeValue.
type Mark struct {
	Kind   GradeKind `json:"kind"`
	Points float64   `json:"points,omitempty"`
}

type Grade struct {
	ID      string    `json:"id,omitempty"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Value   Mark      `json:"value"`
	OutOf   Mark      `json:"outOf"`
	Comment string    `json:"comment,omitempty"`
}

type GradesOverview struct {
	Grades []Grade `json:"grades"`
}

// ---- Notebook ----

type Observation struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name"`
	Subject string    `json:"subject,omitempty"`
	Date    time.Time `json:"date"`
}

type Notebook struct {
	Observations []Observation `json:"observations"`
}
