package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// CookieName is the name of the identity cookie.
const CookieName = "user_id"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can read or write userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// Sessions issues, clears and resolves the identity cookie.
type Sessions struct {
	tokens *TokenService
	secure bool
}

// NewSessions creates a Sessions backed by tokens. secure controls the
// cookie's Secure attribute; turn it off only for local plain-HTTP use.
func NewSessions(tokens *TokenService, secure bool) *Sessions {
	return &Sessions{tokens: tokens, secure: secure}
}

// Start issues a session token for userID and sets it as the identity cookie.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: JavaScript cannot read it, so an XSS bug can't steal it
//   - Secure: only sent over HTTPS
//   - SameSite=Lax: not sent on cross-site POSTs
//   - Max-Age: the token lifetime, so browser and token expire together
func (s *Sessions) Start(w http.ResponseWriter, userID int64) error {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(token, int(s.tokens.TTL().Seconds())))
	return nil
}

// End tells the browser to drop the identity cookie.
func (s *Sessions) End(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *Sessions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// resolve returns the user id carried by the request's identity cookie,
// http.ErrNoCookie when there is none, or the token validation error.
func (s *Sessions) resolve(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie means the cookie isn't present — not an error, just anonymous
		return 0, err
	}
	return s.tokens.Validate(cookie.Value)
}

// ResolveSession is a middleware that extracts the user identity if a valid
// cookie is present, but never blocks the request.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// A cookie that is present but invalid (garbage, tampered, expired, or a
// bare number from an old client) is logged at debug level and the request
// continues as anonymous.
func ResolveSession(sessions *Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.resolve(r)
			switch {
			case err == nil:
				r = r.WithContext(WithUserID(r.Context(), userID))
			case !errors.Is(err, http.ErrNoCookie):
				logger.Debug("ignoring invalid session cookie",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID as the authenticated user.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) if the request is anonymous (no valid cookie was present).
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}
