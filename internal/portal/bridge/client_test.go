package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronote2telegram/internal/portal"
	logx "pronote2telegram/pkg/logx"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{URL: srv.URL + "/", Timeout: 5 * time.Second}, logx.Nop())
	require.NoError(t, err)
	return c
}

func TestLoginAndFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var in portal.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "tok-1", in.Token)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"session":     "sess",
				"user":        map[string]any{"name": "Alice", "tabs": map[string]any{"grades": map[string]any{"defaultPeriod": map[string]any{"id": "1", "name": "T1"}}}},
				"credentials": map[string]any{"token": "tok-2"},
			})
		case "/grades":
			assert.Equal(t, "Bearer sess", r.Header.Get("Authorization"))
			var in periodRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "T1", in.Period.Name)
			_, _ = w.Write([]byte(`{"grades":[{"subject":"Maths","date":"2025-09-10T00:00:00Z","value":{"kind":"grade","points":15},"outOf":{"kind":"grade","points":20},"comment":"Bon travail"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	sess, next, err := c.Login(ctx, portal.Credentials{Token: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", next.Token)
	assert.Equal(t, "Alice", sess.User.Name)

	p, err := sess.DefaultPeriod(portal.TabGrades)
	require.NoError(t, err)

	ov, err := c.Grades(ctx, sess, p)
	require.NoError(t, err)
	require.Len(t, ov.Grades, 1)
	g := ov.Grades[0]
	assert.Equal(t, portal.GradeValue, g.Value.Kind)
	assert.Equal(t, 15.0, g.Value.Points)
	assert.Equal(t, "Bon travail", g.Comment)
}

func TestErrorBodyIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	})
	_, _, err := c.Login(context.Background(), portal.Credentials{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "token expired"), err.Error())
}

func TestTimetableRequestsCancelledClasses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, float64(6), in["week"])
		assert.Equal(t, true, in["withCanceledClasses"])
		_, _ = w.Write([]byte(`{"classes":[{"is":"lesson","subject":"Maths","startDate":"2025-10-07T08:00:00Z","canceled":true}]}`))
	})
	classes, err := c.Timetable(context.Background(), &portal.Session{Token: "s"}, 6)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.True(t, classes[0].Cancelled)
	assert.Equal(t, portal.ClassLesson, classes[0].Kind)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/a.pdf" {
			_, _ = w.Write([]byte("%PDF"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	b, err := c.Download(context.Background(), nil, c.base+"/files/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(b))

	_, err = c.Download(context.Background(), nil, c.base+"/missing")
	assert.Error(t, err)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{}, logx.Nop())
	assert.Error(t, err)
}
