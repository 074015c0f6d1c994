package portal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSchoolWeek(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) // Monday
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"first monday", time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), 1},
		{"first saturday", time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC), 1},
		{"first sunday looks ahead", time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC), 2},
		{"sixth week", time.Date(2025, 10, 8, 10, 0, 0, 0, time.UTC), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SchoolWeek(tt.now, start); got != tt.want {
				t.Fatalf("SchoolWeek(%v) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}

func TestSchoolWeekAcrossDSTChange(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available:", err)
	}
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, paris)
	// Clocks went back on 2025-10-26; Saturday night is still week 10.
	if got := SchoolWeek(time.Date(2025, 11, 8, 23, 30, 0, 0, paris), start); got != 10 {
		t.Fatalf("saturday 23:30 = week %d, want 10", got)
	}
	if got := SchoolWeek(time.Date(2025, 11, 9, 0, 15, 0, 0, paris), start); got != 11 {
		t.Fatalf("sunday 00:15 = week %d, want 11", got)
	}
	if got := SchoolWeek(time.Date(2026, 4, 4, 23, 59, 0, 0, paris), start); got != 31 {
		t.Fatalf("april saturday = week %d, want 31", got)
	}
}

func TestSchoolYearStart(t *testing.T) {
	if got := SchoolYearStart(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)); got.Year() != 2025 {
		t.Fatalf("expected 2025 start for March 2026, got %v", got)
	}
	if got := SchoolYearStart(time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)); got.Year() != 2025 {
		t.Fatalf("expected 2025 start for October 2025, got %v", got)
	}
}

func TestDefaultPeriod(t *testing.T) {
	s := &Session{User: User{Tabs: map[Tab]TabInfo{
		TabGrades:   {DefaultPeriod: &Period{ID: "T1", Name: "Trimestre 1"}},
		TabNotebook: {},
	}}}

	p, err := s.DefaultPeriod(TabGrades)
	if err != nil || p.Name != "Trimestre 1" {
		t.Fatalf("DefaultPeriod(grades) = %+v, %v", p, err)
	}
	if _, err := s.DefaultPeriod(TabNotebook); !errors.Is(err, ErrMissingTab) {
		t.Fatalf("expected ErrMissingTab without default period, got %v", err)
	}
	if _, err := s.DefaultPeriod(TabGradebook); !errors.Is(err, ErrMissingTab) {
		t.Fatalf("expected ErrMissingTab for absent tab, got %v", err)
	}
}

type loginClient struct {
	Client
	got  Credentials
	next Credentials
	err  error
}

func (c *loginClient) Login(_ context.Context, cr Credentials) (*Session, Credentials, error) {
	c.got = cr
	if c.err != nil {
		return nil, Credentials{}, c.err
	}
	return &Session{Token: "s1", User: User{Name: "Alice"}}, c.next, nil
}

func TestLoginRotatesCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	stored := Credentials{Kind: 7, URL: "https://x/pronote", Username: "u", Token: "old", DeviceUUID: "dev-1"}
	if err := SaveCredentials(path, stored); err != nil {
		t.Fatal(err)
	}

	c := &loginClient{next: Credentials{Kind: 7, URL: stored.URL, Username: "u", Token: "new"}}
	sess, err := Login(context.Background(), c, path)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User.Name != "Alice" || c.got.Token != "old" {
		t.Fatalf("unexpected session %+v / sent %+v", sess, c.got)
	}

	after, err := LoadCredentials(path)
	if err != nil {
		t.Fatal(err)
	}
	if after.Token != "new" || after.DeviceUUID != "dev-1" {
		t.Fatalf("expected rotated token with preserved device, got %+v", after)
	}
}

func TestLoginWithoutCredentials(t *testing.T) {
	_, err := Login(context.Background(), &loginClient{}, filepath.Join(t.TempDir(), "login.json"))
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestLoginFailureKeepsStoredCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	stored := Credentials{Token: "old", DeviceUUID: "dev-1"}
	if err := SaveCredentials(path, stored); err != nil {
		t.Fatal(err)
	}
	if _, err := Login(context.Background(), &loginClient{err: errors.New("boom")}, path); err == nil {
		t.Fatal("expected login error")
	}
	b, _ := os.ReadFile(path)
	after, _ := LoadCredentials(path)
	if after.Token != "old" {
		t.Fatalf("credentials must not change on failure: %s", b)
	}
}
