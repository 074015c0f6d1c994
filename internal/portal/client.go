package portal

import "context"

// Client is the portal fetch capability. Implementations own transport,
// authentication and pagination.
type Client interface {
	// Login opens a session and returns the rotated credentials that must
	// replace the stored ones.
	Login(ctx context.Context, c Credentials) (*Session, Credentials, error)

	Assignments(ctx context.Context, s *Session, fromWeek, toWeek int) ([]Assignment, error)
	Timetable(ctx context.Context, s *Session, week int) ([]TimetableClass, error)
	Grades(ctx context.Context, s *Session, p Period) (GradesOverview, error)
	Notebook(ctx context.Context, s *Session, p Period) (Notebook, error)
	GradebookURL(ctx context.Context, s *Session, p Period) (string, error)

	// Download fetches a file referenced by the portal (attachment, PDF).
	Download(ctx context.Context, s *Session, url string) ([]byte, error)
}
