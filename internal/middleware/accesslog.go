package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// redacted replaces the value of any sensitive form field in the access log.
const redacted = "[REDACTED]"

// lineBreaks keeps a request on a single log line, whatever its form
// keys or values contain.
var lineBreaks = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// sensitiveKeys are substrings that mark a form field as sensitive.
var sensitiveKeys = []string{"password", "secret", "token"}

// AccessLog writes one line per request to w:
//
//	2026-01-02T15:04:05Z POST /signin form={password:[REDACTED], username:ada}
//
// The url-encoded body is parsed here so it can be logged. The parsed form
// is cached on the request, so handlers calling r.ParseForm see the same
// values. A body that cannot be parsed is rejected with 400, or 413 when
// it exceeds the request size limit.
//
// Writes to w are serialised, so w need not be safe for concurrent use.
func AccessLog(w io.Writer) func(http.Handler) http.Handler {
	var mu sync.Mutex
	write := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = io.WriteString(w, line)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			parseErr := r.ParseForm()

			line := fmt.Sprintf("%s %s %s", time.Now().UTC().Format(time.RFC3339), r.Method, r.URL.RequestURI())
			if len(r.PostForm) > 0 {
				line += " form=" + formatForm(r.PostForm)
			}
			write(line + "\n")

			if parseErr != nil {
				status := http.StatusBadRequest
				var tooLarge *http.MaxBytesError
				if errors.As(parseErr, &tooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				http.Error(rw, http.StatusText(status), status)
				return
			}

			next.ServeHTTP(rw, r)
		})
	}
}

// formatForm renders form values in key order with sensitive values hidden.
func formatForm(form map[string][]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		value := lineBreaks.Replace(strings.Join(form[k], ","))
		if isSensitive(k) {
			value = redacted
		}
		parts = append(parts, lineBreaks.Replace(k)+":"+value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
