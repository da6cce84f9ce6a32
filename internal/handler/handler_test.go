package handler_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/handler"
	sqliteRepo "github.com/sakif/quoter/internal/repository/sqlite"
	"github.com/sakif/quoter/internal/service"
	"github.com/sakif/quoter/internal/view"
)

const testSecret = "handler-test-secret-0123456789"

// testApp is the real stack (SQLite file, services, handlers, session
// middleware) behind a chi router with the production route table.
type testApp struct {
	router http.Handler
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(filepath.Join(t.TempDir(), "quoter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret, 0)
	require.NoError(t, err)
	sessions := auth.NewSessions(tokens, true)

	quotes := service.NewQuoteService(db, db, logger)
	comments := service.NewCommentService(db, logger)
	users := service.NewAuthService(db, auth.NewPasswordService(bcrypt.MinCost), logger)

	quoteHandler := handler.NewQuoteHandler(quotes, comments, view.Must(), logger)
	authHandler := handler.NewAuthHandler(users, sessions, logger)

	r := chi.NewRouter()
	r.Use(auth.ResolveSession(sessions, logger))
	r.Get("/", quoteHandler.HandleIndex)
	r.Route("/quotes", func(r chi.Router) {
		r.Post("/", quoteHandler.HandleCreate)
		r.Get("/{id:[0-9]+}", quoteHandler.HandleShow)
		r.Post("/{id:[0-9]+}/comments", quoteHandler.HandleComment)
	})
	r.Post("/signin", authHandler.HandleSignIn)
	r.Get("/signout", authHandler.HandleSignOut)

	return &testApp{router: r, db: db, tokens: tokens}
}

// do sends a request, attaching cookie when it is non-nil.
func (a *testApp) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

func (a *testApp) post(target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, cookie)
}

// signIn posts the sign-in form and returns the identity cookie it set.
func (a *testApp) signIn(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := a.post("/signin", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie, "sign-in should set the identity cookie")
	return cookie
}

// userID returns the user a cookie identifies.
func (a *testApp) userID(t *testing.T, cookie *http.Cookie) int64 {
	t.Helper()
	id, err := a.tokens.Validate(cookie.Value)
	require.NoError(t, err)
	return id
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
