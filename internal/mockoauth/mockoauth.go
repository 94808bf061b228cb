// Package mockoauth is a minimal OAuth 2.0 provider for local development
// and integration tests. It speaks just enough of the authorization-code
// flow for the diary server's auth adapter to treat it exactly like GitHub:
//
//	GET  /oauth/authorize → immediately "approves" and redirects back with a code
//	POST /oauth/token     → exchanges the code for a bearer token
//	GET  /user            → returns a GitHub-shaped user profile for the token
//
// There is no consent screen and no real identity: every authorization is
// granted as the default test user. State lives in memory and vanishes with
// the process — that's the point.
package mockoauth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
)

// User is the GitHub-shaped profile the /user endpoint returns.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// codeGrant tracks an issued authorization code until it's exchanged.
type codeGrant struct {
	clientID  string
	userID    int64
	expiresAt time.Time
}

const codeTTL = 10 * time.Minute

// Server is the mock provider. One instance holds all state behind a mutex.
type Server struct {
	logger *slog.Logger

	mu     sync.Mutex
	users  map[int64]User
	codes  map[string]codeGrant // authorization code → grant
	tokens map[string]int64     // access token → user id

	defaultUser int64
}

// New creates a mock provider seeded with two test accounts, matching the
// fixtures the e2e tests sign in as.
func New(logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		users: map[int64]User{
			123: {
				ID:        123,
				Login:     "testuser",
				Name:      "Test User",
				Email:     "test@example.com",
				AvatarURL: "https://avatars.githubusercontent.com/u/123?v=4",
			},
			456: {
				ID:        456,
				Login:     "adminuser",
				Name:      "Admin User",
				Email:     "admin@example.com",
				AvatarURL: "https://avatars.githubusercontent.com/u/456?v=4",
			},
		},
		codes:       make(map[string]codeGrant),
		tokens:      make(map[string]int64),
		defaultUser: 123,
	}
}

// Handler returns the provider's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/oauth/authorize", s.handleAuthorize)
	r.Post("/oauth/token", s.handleToken)
	r.Get("/user", s.handleUser)
	return r
}

// handleAuthorize "approves" every request as the default user and redirects
// back to redirect_uri with a fresh code (echoing state if present).
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	if clientID == "" || redirectURI == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Missing required parameters")
		return
	}

	code := xid.New().String()

	s.mu.Lock()
	s.codes[code] = codeGrant{
		clientID:  clientID,
		userID:    s.defaultUser,
		expiresAt: time.Now().Add(codeTTL),
	}
	s.mu.Unlock()

	params := url.Values{"code": []string{code}}
	if state := q.Get("state"); state != "" {
		params.Set("state", state)
	}

	s.logger.Info("authorization granted", slog.String("clientID", clientID))
	http.Redirect(w, r, redirectURI+"?"+params.Encode(), http.StatusFound)
}

// handleToken exchanges an authorization code for an access token.
// Client credentials may arrive in the form body or a Basic auth header —
// x/oauth2 uses the header.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	clientID := r.PostFormValue("client_id")
	if id, _, ok := r.BasicAuth(); ok {
		clientID = id
	}

	if r.PostFormValue("grant_type") != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}

	code := r.PostFormValue("code")

	s.mu.Lock()
	grant, ok := s.codes[code]
	if ok {
		// Codes are single-use.
		delete(s.codes, code)
	}
	s.mu.Unlock()

	if !ok {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
		return
	}
	if time.Now().After(grant.expiresAt) {
		writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Authorization code expired")
		return
	}
	if clientID != grant.clientID {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client", "")
		return
	}

	token := xid.New().String()
	s.mu.Lock()
	s.tokens[token] = grant.userID
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"scope":        "user:email",
	})
}

// handleUser returns the profile for the bearer token, GitHub-API shaped.
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "Missing bearer token")
		return
	}

	s.mu.Lock()
	userID, found := s.tokens[token]
	user := s.users[userID]
	s.mu.Unlock()

	if !found {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_token", "Unknown access token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// SetDefaultUser switches which seeded account authorizations are granted
// as. Tests use this to sign in as different users.
func (s *Server) SetDefaultUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; ok {
		s.defaultUser = id
	}
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	json.NewEncoder(w).Encode(body)
}
