package handler

// RESPONSE HELPERS:
// These functions standardise how handlers answer: an HTML page, a 303
// redirect after a form post, or an error.
//
// ERROR MAPPING:
// Domain errors from the service layer are translated here, and only here:
//
//	apperror.ErrValidation → 303 back to the form's page with ?error=<message>
//	apperror.ErrForbidden  → 303 back to the page with ?error=<message>
//	apperror.ErrNotFound   → 404 "Not Found"
//	anything else          → 500, cause logged, never shown to the client
//
// The service layer never sees a status code, so the same rules could be
// served over a different transport without changing it.

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/quoter/internal/apperror"
)

// writeHTML sends a rendered page.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE writing the body. Once w.Write is
// called the headers are on the wire and later changes are ignored.
func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// The client went away; nothing left to tell it.
		slog.Debug("failed to write response body", slog.String("error", err.Error()))
	}
}

// seeOther redirects with 303 so the browser follows up with a GET.
// This is the post/redirect/get pattern: reloading the next page never
// re-submits the form.
func seeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// withError appends an error message to a path as ?error=<message>.
// Spaces become %20 rather than "+", so "Invalid password!" is sent as
// "Invalid%20password%21".
func withError(path, message string) string {
	return path + "?error=" + escapeQuery(message)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// notFound sends a bare 404. No page chrome, so nothing about the missing
// record leaks into the response.
func notFound(w http.ResponseWriter) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

// internalError logs err with the request's context and sends a generic 500.
// NEVER expose the raw error: it may contain SQL or file paths.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// writeError maps a domain error to its response. back is the page a
// user-correctable error is reported on.
//
// errors.Is() UNWRAPPING:
// errors.Is(err, target) walks the whole chain via Unwrap(), so
//
//	service returns: fmt.Errorf("creating quote: %w", apperror.ValidationFailed(...))
//	which wraps:     AppError{Err: ErrValidation, Message: "..."}
//	errors.Is walks: outer error → AppError → ErrValidation ✓ match!
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, back string) {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		notFound(w)
	case errors.As(err, &appErr) &&
		(errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrForbidden)):
		seeOther(w, r, withError(back, appErr.Message))
	default:
		internalError(w, r, logger, err)
	}
}
