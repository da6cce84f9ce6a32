package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/service"
)

// AuthHandler manages signing in and out.
//
// DEPENDENCY CHAIN:
//   - users    *service.AuthService → finds or creates the user, checks the password
//   - sessions *auth.Sessions       → sets and clears the identity cookie
type AuthHandler struct {
	users    *service.AuthService
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(users *service.AuthService, sessions *auth.Sessions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleSignIn signs a user in, signing them up if the name is new.
//
// HTTP: POST /signin   form: username, password
//
// FLOW:
//  1. Validate the form
//  2. AuthService.SignIn finds or creates the user and checks the password
//  3. Set the identity cookie and redirect home
//
// A wrong password redirects to /?error=Invalid%20password%21 and leaves
// any existing cookie untouched.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	form := signInForm{
		Username: service.NormalizeUsername(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, h.logger, err, "/")
		return
	}

	user, err := h.users.SignIn(r.Context(), form.Username, form.Password)
	if err != nil {
		writeError(w, r, h.logger, err, "/")
		return
	}

	if err := h.sessions.Start(w, user.ID); err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user signed in", slog.Int64("userID", user.ID))
	seeOther(w, r, "/")
}

// HandleSignOut clears the identity cookie.
//
// HTTP: GET /signout
//
// The session token is stateless, so signing out only deletes the cookie.
// A copy of the token taken before sign-out stays valid until it expires.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w)
	seeOther(w, r, "/")
}
