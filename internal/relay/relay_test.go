package relay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronote2telegram/internal/format"
	"pronote2telegram/internal/portal"
	"pronote2telegram/internal/storage"
	"pronote2telegram/internal/transport"
	logx "pronote2telegram/pkg/logx"
)

type fakePortal struct {
	assignments  []portal.Assignment
	classes      []portal.TimetableClass
	grades       []portal.Grade
	notebook     []portal.Observation
	gradebook    string
	gradebookErr error
	pdf          []byte

	weeks []int
}

func (f *fakePortal) Login(context.Context, portal.Credentials) (*portal.Session, portal.Credentials, error) {
	return nil, portal.Credentials{}, errors.New("not used")
}

func (f *fakePortal) Assignments(_ context.Context, _ *portal.Session, from, to int) ([]portal.Assignment, error) {
	f.weeks = append(f.weeks, from, to)
	return f.assignments, nil
}

func (f *fakePortal) Timetable(_ context.Context, _ *portal.Session, week int) ([]portal.TimetableClass, error) {
	f.weeks = append(f.weeks, week)
	return f.classes, nil
}

func (f *fakePortal) Grades(context.Context, *portal.Session, portal.Period) (portal.GradesOverview, error) {
	return portal.GradesOverview{Grades: f.grades}, nil
}

func (f *fakePortal) Notebook(context.Context, *portal.Session, portal.Period) (portal.Notebook, error) {
	return portal.Notebook{Observations: f.notebook}, nil
}

func (f *fakePortal) GradebookURL(context.Context, *portal.Session, portal.Period) (string, error) {
	return f.gradebook, f.gradebookErr
}

func (f *fakePortal) Download(context.Context, *portal.Session, string) ([]byte, error) {
	return f.pdf, nil
}

type sent struct {
	Child, Subject, Body string
	Markdown             bool
}

type fakeSink struct {
	mu       sync.Mutex
	messages []sent
	posts    []transport.Post
	fail     error
}

func (f *fakeSink) SendMessage(_ context.Context, child, subject, body string, isMarkdown bool) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sent{child, subject, body, isMarkdown})
	return nil
}

func (f *fakeSink) SendPost(_ context.Context, p transport.Post) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, p)
	return nil
}

var testNow = time.Date(2024, 9, 18, 10, 0, 0, 0, time.UTC) // Wednesday

func testSession() *portal.Session {
	period := &portal.Period{ID: "p1", Name: "Trimestre 1"}
	return &portal.Session{User: portal.User{
		Name: "Ana",
		Tabs: map[portal.Tab]portal.TabInfo{
			portal.TabGrades:    {DefaultPeriod: period},
			portal.TabGradebook: {DefaultPeriod: period},
			portal.TabNotebook:  {DefaultPeriod: period},
		},
	}}
}

func newDeps(t *testing.T, p *fakePortal, s *fakeSink) (Deps, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(storage.Config{Driver: "file", Dir: dir}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return Deps{
		Portal:    p,
		Sink:      s,
		Store:     st,
		Format:    format.New("en", time.UTC),
		Log:       logx.Nop(),
		Location:  time.UTC,
		YearStart: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
		Now:       func() time.Time { return testNow },
	}, dir
}

func day(d, h int) time.Time { return time.Date(2024, 9, d, h, 0, 0, 0, time.UTC) }

func TestAssignmentsPendingSortedOneMessage(t *testing.T) {
	p := &fakePortal{assignments: []portal.Assignment{
		{Subject: "Histoire", Description: "<p>Lire</p>", Deadline: day(20, 0)},
		{Subject: "Maths", Description: "Ex 1", Deadline: day(19, 0)},
		{Subject: "Done", Deadline: day(19, 0), Done: true},
		{Subject: "Past", Deadline: day(17, 0)},
	}}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)

	require.NoError(t, (&Assignments{d: d}).Process(context.Background(), testSession()))

	assert.Equal(t, []int{3, 3}, p.weeks)
	require.Len(t, s.messages, 1)
	m := s.messages[0]
	assert.Equal(t, "Ana", m.Child)
	assert.Equal(t, "Homework", m.Subject)
	assert.True(t, m.Markdown)
	assert.Less(t, indexOf(m.Body, "Maths"), indexOf(m.Body, "Histoire"))
	assert.NotContains(t, m.Body, "Done")
	assert.NotContains(t, m.Body, "Past")
}

func TestAssignmentsNothingPending(t *testing.T) {
	p := &fakePortal{assignments: []portal.Assignment{{Subject: "Done", Deadline: day(19, 0), Done: true}}}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)

	require.NoError(t, (&Assignments{d: d}).Process(context.Background(), testSession()))
	assert.Empty(t, s.messages)
}

func TestTimetableNotifiesOnce(t *testing.T) {
	p := &fakePortal{classes: []portal.TimetableClass{
		{Kind: portal.ClassLesson, Subject: "Maths", Start: day(19, 8), Cancelled: true},
		{Kind: portal.ClassLesson, Subject: "SVT", Start: day(19, 10), Status: portal.StatusStudyHall},
		{Kind: portal.ClassLesson, Subject: "EPS", Start: day(19, 14)},
		{Kind: portal.ClassActivity, Subject: "Club", Start: day(19, 16), Cancelled: true},
	}}
	s := &fakeSink{}
	d, dir := newDeps(t, p, s)
	proc := &Timetable{d: d}

	require.NoError(t, proc.Process(context.Background(), testSession()))
	require.Len(t, s.messages, 2)
	assert.Equal(t, sent{"Ana", "Class Cancelled", "Maths, Thursday at 08:00", false}, s.messages[0])
	assert.Equal(t, sent{"Ana", "Study Hall", "Thursday at 10:00", false}, s.messages[1])
	assert.FileExists(t, filepath.Join(dir, "timetable-history.json"))

	require.NoError(t, proc.Process(context.Background(), testSession()))
	assert.Len(t, s.messages, 2)
}

func TestGradesDuplicatesAreDistinct(t *testing.T) {
	g := portal.Grade{
		Subject: "Maths",
		Date:    day(10, 0),
		Value:   portal.Mark{Kind: portal.GradeValue, Points: 15},
		OutOf:   portal.Mark{Kind: portal.GradeValue, Points: 20},
		Comment: "Bon travail",
	}
	p := &fakePortal{grades: []portal.Grade{g, g}}
	s := &fakeSink{}
	d, dir := newDeps(t, p, s)
	proc := &Grades{d: d}

	require.NoError(t, proc.Process(context.Background(), testSession()))
	require.Len(t, s.messages, 1)
	assert.Equal(t, "New Grades", s.messages[0].Subject)
	assert.Equal(t, "10/09 Maths (Bon travail) - 15/20\n10/09 Maths (Bon travail) - 15/20", s.messages[0].Body)
	assert.FileExists(t, filepath.Join(dir, "grades.json"))

	// A third identical grade is the only new one.
	p.grades = append(p.grades, g)
	require.NoError(t, proc.Process(context.Background(), testSession()))
	require.Len(t, s.messages, 2)
	assert.Equal(t, "New Grade", s.messages[1].Subject)
}

func TestGradesAbsent(t *testing.T) {
	p := &fakePortal{grades: []portal.Grade{{
		Subject: "Maths",
		Date:    day(10, 0),
		Value:   portal.Mark{Kind: portal.GradeAbsent},
	}}}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)

	require.NoError(t, (&Grades{d: d}).Process(context.Background(), testSession()))
	require.Len(t, s.messages, 1)
	assert.Equal(t, "10/09 Maths - Absent", s.messages[0].Body)
}

func TestGradesHistoryKeptUntilDelivered(t *testing.T) {
	p := &fakePortal{grades: []portal.Grade{{Subject: "Maths", Date: day(10, 0), Value: portal.Mark{Kind: portal.GradeValue, Points: 12}}}}
	s := &fakeSink{fail: errors.New("telegram down")}
	d, dir := newDeps(t, p, s)
	proc := &Grades{d: d}

	require.Error(t, proc.Process(context.Background(), testSession()))
	_, err := os.Stat(filepath.Join(dir, "grades-history.json"))
	assert.True(t, os.IsNotExist(err))

	s.fail = nil
	require.NoError(t, proc.Process(context.Background(), testSession()))
	assert.Len(t, s.messages, 1)
}

func TestGradesMissingTab(t *testing.T) {
	s := &fakeSink{}
	d, _ := newDeps(t, &fakePortal{}, s)
	sess := testSession()
	delete(sess.User.Tabs, portal.TabGrades)

	err := (&Grades{d: d}).Process(context.Background(), sess)
	assert.ErrorIs(t, err, portal.ErrMissingTab)
}

func TestNewsSingular(t *testing.T) {
	p := &fakePortal{notebook: []portal.Observation{{Name: "Oubli de matériel", Subject: "EPS", Date: day(12, 0)}}}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)
	proc := &News{d: d}

	require.NoError(t, proc.Process(context.Background(), testSession()))
	require.Len(t, s.messages, 1)
	assert.Equal(t, "New Observation", s.messages[0].Subject)
	assert.Equal(t, "12/09 Oubli de matériel - EPS", s.messages[0].Body)

	require.NoError(t, proc.Process(context.Background(), testSession()))
	assert.Len(t, s.messages, 1)
}

func TestGradebookSentOncePerPeriod(t *testing.T) {
	p := &fakePortal{gradebook: "https://portal.example/bulletin.pdf", pdf: []byte("%PDF-1.4")}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)
	proc := &Gradebook{d: d}

	require.NoError(t, proc.Process(context.Background(), testSession()))
	require.Len(t, s.posts, 1)
	post := s.posts[0]
	assert.Equal(t, "Trimestre 1", post.Subject)
	require.Len(t, post.Attachments, 1)
	assert.Equal(t, "Trimestre 1.pdf", post.Attachments[0].Name)
	assert.Equal(t, transport.MediaDocument, post.Attachments[0].Kind)

	require.NoError(t, proc.Process(context.Background(), testSession()))
	assert.Len(t, s.posts, 1)
}

func TestGradebookUnavailableIsNotAnError(t *testing.T) {
	p := &fakePortal{gradebookErr: errors.New("not published")}
	s := &fakeSink{}
	d, _ := newDeps(t, p, s)

	require.NoError(t, (&Gradebook{d: d}).Process(context.Background(), testSession()))
	assert.Empty(t, s.posts)
}

func TestNewOrder(t *testing.T) {
	d, _ := newDeps(t, &fakePortal{}, &fakeSink{})
	procs, err := New(d, Enabled{Assignments: true, Timetable: true, Grades: true, News: true})
	require.NoError(t, err)

	var names []string
	for _, p := range procs {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"assignments", "timetable", "grades", "gradebook", "news"}, names)

	_, err = New(Deps{}, Enabled{})
	assert.Error(t, err)
}

func indexOf(s, sub string) int { return strings.Index(s, sub) }
