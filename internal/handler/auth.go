package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/auth"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// AuthHandler manages the OAuth login flow and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → redirect the browser to the provider's authorize page
//   - HandleCallback → receive the code, exchange it, upsert the user,
//     establish the session
//   - HandleLogout   → clear the session cookie
//   - HandleWhoami   → report the current authentication state
//
// FAILURE CONTRACT:
// Any failure past the authorize redirect — state mismatch, code exchange,
// user-info fetch, upsert — sends the browser back to "/?error=auth_failed"
// with no session state set. A failed callback leaves nothing behind.
type AuthHandler struct {
	provider *auth.Provider
	sessions *auth.Sessions
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected; the
// handler has no knowledge of how they're constructed.
func NewAuthHandler(
	provider *auth.Provider,
	sessions *auth.Sessions,
	users repository.UserRepository,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// HandleLogin redirects the user to the provider's authorization page.
//
// HTTP: GET /auth/login
//
// The random state value lands in a short-lived cookie; HandleCallback
// verifies the provider echoed it back (CSRF protection).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Verify the state parameter against the cookie
//  2. Exchange the code for the provider profile
//  3. Upsert the user (first login creates, later logins refresh)
//  4. Issue the session cookie carrying the local user ID
//  5. Redirect to the app root
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched")
		h.failLogin(w, r)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: provider returned error", slog.String("error", errParam))
		h.failLogin(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code")
		h.failLogin(w, r)
		return
	}

	ghUser, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		h.failLogin(w, r)
		return
	}

	user, err := h.users.CreateOrUpdateUser(r.Context(), repository.GitHubProfile{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Name:      ghUser.Name,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	})
	if err != nil {
		h.logger.Error("auth callback: upsert failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r)
		return
	}

	tokenStr, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("auth callback: session issue failed", slog.String("error", err.Error()))
		h.failLogin(w, r)
		return
	}

	h.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.DefaultSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// failLogin sends the browser back to the root with the error flag.
// No session state exists at any failure point, so there is nothing to clear.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
}

// HandleLogout clears the session cookie and sends the browser home.
//
// HTTP: GET /auth/logout
//
// The session is stateless, so logout is just deleting the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// whoamiResponse is the GET /api/user body. User is a pointer so it drops
// out of the JSON entirely for anonymous callers.
type whoamiResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *model.PublicUser `json:"user,omitempty"`
}

// HandleWhoami reports the current authentication state.
//
// HTTP: GET /api/user (behind OptionalAuth — anonymous callers get
// {"authenticated": false}, never a 401)
func (h *AuthHandler) HandleWhoami(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, whoamiResponse{Authenticated: false})
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Valid session for a user that no longer exists — treat as
			// anonymous rather than erroring.
			writeJSON(w, http.StatusOK, whoamiResponse{Authenticated: false})
			return
		}
		h.logger.Error("whoami: lookup failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	pub := user.Public()
	writeJSON(w, http.StatusOK, whoamiResponse{Authenticated: true, User: &pub})
}
