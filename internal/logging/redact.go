package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Session cookies are JWTs; a value of this shape is never logged.
var jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

// RedactOptions returns the masq options applied to every log record.
func RedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("password"),
		masq.WithFieldName("secret"),
		masq.WithFieldName("token"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("session"),
		masq.WithFieldName("authorization"),
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("session_"),
		masq.WithRegex(jwtPattern),
	}
}

// NewReplaceAttr creates a ReplaceAttr function for slog.HandlerOptions
// that redacts sensitive data, extended by opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(RedactOptions(), opts...)...)
}
