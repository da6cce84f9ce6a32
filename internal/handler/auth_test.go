package handler_test

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/quoter/internal/auth"
)

// TestHandleSignIn_AdaSequence: sign-up, wrong password, then sign-in with
// different case and padding.
func TestHandleSignIn_AdaSequence(t *testing.T) {
	app := newTestApp(t)

	first := app.signIn(t, "ada", "x")
	adaID := app.userID(t, first)
	assert.True(t, first.HttpOnly)
	assert.True(t, first.Secure)
	assert.Equal(t, "/", first.Path)
	assert.Equal(t, 604800, first.MaxAge)

	rec := app.post("/signin", url.Values{"username": {"ADA"}, "password": {"y"}}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?error=Invalid%20password%21", rec.Header().Get("Location"))
	assert.Nil(t, sessionCookie(rec), "a failed sign-in must not touch the cookie")

	again := app.signIn(t, "  Ada ", "x")
	assert.Equal(t, adaID, app.userID(t, again))

	page := app.get("/?error=Invalid%20password%21", nil).Body.String()
	assert.Contains(t, page, `<div class="error">Invalid password!</div>`)
}

func TestHandleSignIn_SignedInHeader(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "ada", "x")

	body := app.get("/", cookie).Body.String()

	assert.Contains(t, body, `href="/signout"`)
	assert.Contains(t, body, "Add a quote")
	assert.NotContains(t, body, `<label class="link" for="signinCheckbox">`)
}

func TestHandleSignIn_Validation(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		location string
	}{
		{"missing username", url.Values{"password": {"x"}}, "/?error=Username%20is%20required"},
		{"blank username", url.Values{"username": {"   "}, "password": {"x"}}, "/?error=Username%20is%20required"},
		{"missing password", url.Values{"username": {"ada"}}, "/?error=Password%20is%20required"},
		{"password too long", url.Values{"username": {"ada"}, "password": {strings.Repeat("p", 73)}}, "/?error=Password%20must%20be%2072%20bytes%20or%20fewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			rec := app.post("/signin", tt.form, nil)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

// TestHandleSignIn_ConcurrentSignUp races several sign-ups for one new name.
// Every request succeeds and every cookie names the same user.
func TestHandleSignIn_ConcurrentSignUp(t *testing.T) {
	app := newTestApp(t)

	const n = 8
	var (
		mu  sync.Mutex
		ids []int64
	)

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			rec := app.post("/signin", url.Values{"username": {"racer"}, "password": {"pw"}}, nil)
			if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
				return assert.AnError
			}
			cookie := sessionCookie(rec)
			if cookie == nil {
				return assert.AnError
			}
			id, err := app.tokens.Validate(cookie.Value)
			if err != nil {
				return err
			}
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, ids, n)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	user, err := app.db.FindUserByName(t.Context(), "racer")
	require.NoError(t, err)
	assert.Equal(t, ids[0], user.ID)
}

func TestResolveSession_NonNumericCookieIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	for _, value := range []string{"abc", "42", "-1", "eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0."} {
		rec := app.get("/", &http.Cookie{Name: auth.CookieName, Value: value})

		assert.Equal(t, http.StatusOK, rec.Code, value)
		assert.Contains(t, rec.Body.String(), `<label class="link" for="signinCheckbox">Sign in</label>`, value)
		assert.NotContains(t, rec.Body.String(), `href="/signout"`, value)
	}
}

func TestHandleSignOut(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "ada", "x")

	rec := app.get("/signout", cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
