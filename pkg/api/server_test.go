package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nudge/pkg/adapters/fs"
	"github.com/aretw0/nudge/pkg/api"
	"github.com/aretw0/nudge/pkg/core"
)

func setupServer(t *testing.T, mutate ...func(*fs.Config)) (*api.Server, *core.Service) {
	t.Helper()
	cfg := fs.Config{Path: t.TempDir()}
	for _, m := range mutate {
		m(&cfg)
	}
	repo, err := fs.NewRepository(cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(context.Background()))

	svc := core.NewService(repo)
	return api.New(svc), svc
}

func do(t *testing.T, srv *api.Server, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeNote(t *testing.T, data []byte) core.Note {
	t.Helper()
	var n core.Note
	require.NoError(t, json.Unmarshal(data, &n))
	return n
}

func TestAPI_CreateAndFetch(t *testing.T) {
	srv, _ := setupServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/notes", `{"title":"Buy milk","content":"2L","reminder":"2026-03-01T18:00:00.000Z"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decodeNote(t, body)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, core.DefaultCategory, created.Category)
	assert.False(t, created.Completed)
	require.NotNil(t, created.Reminder)
	assert.True(t, created.Reminder.Equal(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)))

	status, body = do(t, srv, http.MethodGet, "/api/notes/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, decodeNote(t, body))

	status, body = do(t, srv, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, status)
	var all []core.Note
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 1)
}

func TestAPI_EmptyListIsArray(t *testing.T) {
	srv, _ := setupServer(t)
	status, body := do(t, srv, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestAPI_EmptyReminderMeansNone(t *testing.T) {
	srv, _ := setupServer(t)
	status, body := do(t, srv, http.MethodPost, "/api/notes", `{"title":"x","reminder":""}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Nil(t, decodeNote(t, body).Reminder)
}

func TestAPI_PartialUpdate(t *testing.T) {
	srv, _ := setupServer(t)
	do(t, srv, http.MethodPost, "/api/notes", `{"title":"t","content":"c","category":"Work","reminder":"2026-03-01T18:00:00Z"}`)

	status, body := do(t, srv, http.MethodPut, "/api/notes/1", `{"completed":true}`)
	require.Equal(t, http.StatusOK, status, string(body))
	n := decodeNote(t, body)
	assert.True(t, n.Completed)
	assert.Equal(t, "t", n.Title)
	assert.Equal(t, "c", n.Content)
	assert.Equal(t, "Work", n.Category)
	assert.NotNil(t, n.Reminder)

	status, body = do(t, srv, http.MethodPut, "/api/notes/1", `{"reminder":null}`)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decodeNote(t, body).Reminder)
}

func TestAPI_Delete(t *testing.T) {
	srv, _ := setupServer(t)
	do(t, srv, http.MethodPost, "/api/notes", `{"title":"t"}`)

	status, body := do(t, srv, http.MethodDelete, "/api/notes/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Note deleted successfully"}`, string(body))

	status, body = do(t, srv, http.MethodDelete, "/api/notes/1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Note not found"}`, string(body))
}

func TestAPI_NotFound(t *testing.T) {
	srv, _ := setupServer(t)
	for _, target := range []string{"/api/notes/42", "/api/notes/abc", "/api/notes/-1"} {
		status, _ := do(t, srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, status, target)
	}

	status, _ := do(t, srv, http.MethodPut, "/api/notes/42", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_BadRequests(t *testing.T) {
	srv, _ := setupServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/notes", `{"title":"x","reminder":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "reminder")

	status, _ = do(t, srv, http.MethodPost, "/api/notes", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodGet, "/api/notes?category=%5B", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_CategoryFilter(t *testing.T) {
	srv, _ := setupServer(t)
	do(t, srv, http.MethodPost, "/api/notes", `{"title":"a","category":"Work"}`)
	do(t, srv, http.MethodPost, "/api/notes", `{"title":"b","category":"Workout"}`)
	do(t, srv, http.MethodPost, "/api/notes", `{"title":"c"}`)

	status, body := do(t, srv, http.MethodGet, "/api/notes?category=work*", "")
	require.Equal(t, http.StatusOK, status)
	var notes []core.Note
	require.NoError(t, json.Unmarshal(body, &notes))
	assert.Len(t, notes, 2)
}

func TestAPI_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	seed, err := fs.NewRepository(fs.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, seed.Initialize(context.Background()))

	srv, _ := setupServer(t, func(c *fs.Config) {
		c.Path = dir
		c.ReadOnly = true
	})

	status, _ := do(t, srv, http.MethodPost, "/api/notes", `{"title":"x"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_State(t *testing.T) {
	srv, _ := setupServer(t)
	status, body := do(t, srv, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, status)

	var state map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Contains(t, state, "service")
}
