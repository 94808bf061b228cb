package handler_test

// Full-stack tests: a real router from server.New, the document store over
// the in-memory object store, and the mock OAuth provider behind httptest.
// The client carries a cookie jar, so the login flow runs exactly as a
// browser would drive it — login redirect, provider authorize, callback,
// session cookie, API calls.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/food-diary/internal/auth"
	"github.com/sakif/food-diary/internal/mockoauth"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/objectstore"
	"github.com/sakif/food-diary/internal/repository/docstore"
	"github.com/sakif/food-diary/internal/server"
)

// testApp bundles everything a handler test needs.
type testApp struct {
	ts     *httptest.Server
	mock   *mockoauth.Server
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	mock := mockoauth.New(logger)
	mockTS := httptest.NewServer(mock.Handler())
	t.Cleanup(mockTS.Close)

	repo := docstore.New(objectstore.NewMemory(), logger)

	sessions, err := auth.NewSessions("test-secret-at-least-16-chars!!", 0)
	require.NoError(t, err)

	// The redirect target lands on "/" — give it a page to serve.
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>diary</html>"), 0o644))

	// The provider needs the app's own URL for the callback, which doesn't
	// exist until the test server starts. Start the server around an
	// indirection and wire the real handler in afterwards.
	var appHandler http.Handler
	appTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appHandler.ServeHTTP(w, r)
	}))
	t.Cleanup(appTS.Close)

	provider := auth.NewCustom(
		"test-client",
		"test-secret",
		appTS.URL+"/auth/callback",
		mockTS.URL+"/oauth/authorize",
		mockTS.URL+"/oauth/token",
		mockTS.URL+"/user",
	)

	srv := server.New(server.Config{StaticDir: staticDir}, logger, repo, provider, sessions)
	appHandler = srv.Handler()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		ts:     appTS,
		mock:   mock,
		client: &http.Client{Jar: jar},
	}
}

// login drives the whole OAuth flow. The client follows every redirect —
// app → provider → callback → app root — and ends up with a session cookie.
func (a *testApp) login(t *testing.T) {
	t.Helper()

	resp, err := a.client.Get(a.ts.URL + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	require.Equal(t, http.StatusOK, resp.StatusCode, "login flow should land on the app root")
	require.Equal(t, "/", resp.Request.URL.Path)
	require.Empty(t, resp.Request.URL.RawQuery, "login flow should not end on an error redirect")
}

// do runs a JSON request with the app client and decodes the response into out.
func (a *testApp) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.ts.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp
}

type whoamiBody struct {
	Authenticated bool              `json:"authenticated"`
	User          *model.PublicUser `json:"user"`
}

// =========================================================================
// AUTH TESTS
// =========================================================================

func TestAPI_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	var body map[string]string
	resp := app.do(t, http.MethodGet, "/api/entries", nil, &body)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestWhoami_Anonymous(t *testing.T) {
	app := newTestApp(t)

	var body whoamiBody
	resp := app.do(t, http.MethodGet, "/api/user", nil, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, body.Authenticated)
	assert.Nil(t, body.User)
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	var body whoamiBody
	resp := app.do(t, http.MethodGet, "/api/user", nil, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Authenticated)
	require.NotNil(t, body.User)
	assert.Equal(t, "testuser", body.User.Username)
	assert.NotZero(t, body.User.ID)
}

func TestLoginFlow_SecondLoginKeepsUser(t *testing.T) {
	app := newTestApp(t)

	app.login(t)
	var first whoamiBody
	app.do(t, http.MethodGet, "/api/user", nil, &first)
	require.NotNil(t, first.User)

	app.login(t)
	var second whoamiBody
	app.do(t, http.MethodGet, "/api/user", nil, &second)
	require.NotNil(t, second.User)

	assert.Equal(t, first.User.ID, second.User.ID, "re-login must map to the same account")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	resp := app.do(t, http.MethodGet, "/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "logout redirect should land on the app root")

	var body map[string]string
	resp = app.do(t, http.MethodGet, "/api/entries", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// =========================================================================
// ENTRY CRUD TESTS
// =========================================================================

func TestEntryCRUDFlow(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	// Create
	var created model.Entry
	resp := app.do(t, http.MethodPost, "/api/entries", map[string]string{
		"event_datetime": "2023-12-07T12:00",
		"text":           "lunch",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, created.ID)
	assert.True(t, created.Synced)
	assert.Equal(t, "lunch", created.Text)

	// List
	var entries []model.Entry
	resp = app.do(t, http.MethodGet, "/api/entries", nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, entries, 1)
	assert.Equal(t, "lunch", entries[0].Text)

	// Update
	var updated map[string]string
	resp = app.do(t, http.MethodPut, "/api/entries/1", map[string]string{
		"text": "late lunch",
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Entry updated successfully", updated["message"])

	app.do(t, http.MethodGet, "/api/entries", nil, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "late lunch", entries[0].Text)

	// Delete
	var deleted map[string]string
	resp = app.do(t, http.MethodDelete, "/api/entries/1", nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Entry deleted successfully", deleted["message"])

	resp = app.do(t, http.MethodGet, "/api/entries", nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, entries)
}

func TestListOrdering(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	for _, e := range []struct{ dt, text string }{
		{"2023-12-07T09:00", "breakfast"},
		{"2023-12-07T18:00", "dinner"},
		{"2023-12-07T12:00", "lunch"},
	} {
		resp := app.do(t, http.MethodPost, "/api/entries", map[string]string{
			"event_datetime": e.dt,
			"text":           e.text,
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var entries []model.Entry
	app.do(t, http.MethodGet, "/api/entries", nil, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, "dinner", entries[0].Text)
	assert.Equal(t, "lunch", entries[1].Text)
	assert.Equal(t, "breakfast", entries[2].Text)
}

func TestUpdate_NotFound(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	var body map[string]string
	resp := app.do(t, http.MethodPut, "/api/entries/99", map[string]string{"text": "x"}, &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Entry not found", body["error"])
}

func TestDelete_NotFound(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	var body map[string]string
	resp := app.do(t, http.MethodDelete, "/api/entries/99", nil, &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Entry not found", body["error"])
}

func TestCreate_InvalidJSON(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	req, err := http.NewRequest(http.MethodPost, app.ts.URL+"/api/entries", bytes.NewBufferString(`{"text":`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdate_InvalidEntryID(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	var body map[string]string
	resp := app.do(t, http.MethodPut, "/api/entries/abc", map[string]string{"text": "x"}, &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid entry id", body["error"])
}

// =========================================================================
// ISOLATION TESTS
// =========================================================================

func TestEntriesIsolatedBetweenUsers(t *testing.T) {
	app := newTestApp(t)

	// First user creates an entry.
	app.login(t)
	resp := app.do(t, http.MethodPost, "/api/entries", map[string]string{"text": "mine"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	app.do(t, http.MethodGet, "/auth/logout", nil, nil)

	// Second user sees an empty diary.
	app.mock.SetDefaultUser(456)
	app.login(t)

	var entries []model.Entry
	resp = app.do(t, http.MethodGet, "/api/entries", nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, entries)

	var who whoamiBody
	app.do(t, http.MethodGet, "/api/user", nil, &who)
	require.NotNil(t, who.User)
	assert.Equal(t, "adminuser", who.User.Username)
}
