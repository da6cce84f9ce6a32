package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestAccessLog_RedactsPasswords(t *testing.T) {
	var buf bytes.Buffer
	var seen url.Values
	h := AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = r.PostForm
	}))

	h.ServeHTTP(httptest.NewRecorder(), postForm("/signin", url.Values{
		"username": {"ada"},
		"password": {"correct horse"},
	}))

	line := buf.String()
	assert.Contains(t, line, "POST /signin form={password:[REDACTED], username:ada}")
	assert.NotContains(t, line, "correct horse")
	assert.True(t, strings.HasSuffix(line, "\n"))

	// The handler still sees the real values.
	assert.Equal(t, "correct horse", seen.Get("password"))
	assert.Equal(t, "ada", seen.Get("username"))
}

func TestAccessLog_GetHasNoForm(t *testing.T) {
	var buf bytes.Buffer
	h := AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quotes/1?error=x", nil))

	assert.Contains(t, buf.String(), "GET /quotes/1?error=x\n")
	assert.NotContains(t, buf.String(), "form=")
}

func TestAccessLog_MultilineValueStaysOnOneLine(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"newline in value", url.Values{"text": {"line one\nline two"}}, `text:line one\nline two`},
		{"carriage return in value", url.Values{"text": {"a\r\nb"}}, `text:a\r\nb`},
		{"newline in key", url.Values{"x\nGET /forged form={}": {"1"}}, `form={x\nGET /forged form={}:1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			h.ServeHTTP(httptest.NewRecorder(), postForm("/quotes", tt.form))

			assert.Equal(t, 1, strings.Count(buf.String(), "\n"), buf.String())
			assert.NotContains(t, buf.String(), "\r")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestAccessLog_OversizedBodyIsRejected(t *testing.T) {
	var buf bytes.Buffer
	called := false
	h := chimiddleware.RequestSize(16)(AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, postForm("/quotes", url.Values{"text": {strings.Repeat("x", 1024)}}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, called)
	assert.Contains(t, buf.String(), "POST /quotes")
}

func TestAccessLog_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	h := AccessLog(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, " GET /"), line)
	}
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, isSensitive("password"))
	assert.True(t, isSensitive("New_Password"))
	assert.True(t, isSensitive("csrf_token"))
	assert.False(t, isSensitive("username"))
	assert.False(t, isSensitive("text"))
}
