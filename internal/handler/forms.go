package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/service"
)

// Form DTOs. Each one checks what can be checked without the database;
// the services re-apply the same rules (after trimming) for other callers.

type quoteForm struct {
	Text        string `json:"text"`
	Attribution string `json:"attribution"`
}

func (f quoteForm) Validate() error {
	return firstError(validation.ValidateStruct(&f,
		validation.Field(&f.Text,
			validation.Required.Error("Quote text is required"),
			validation.RuneLength(0, service.MaxQuoteLength).Error("Quote is too long"),
		),
		validation.Field(&f.Attribution,
			validation.RuneLength(0, service.MaxAttributionLength).Error("Attribution is too long"),
		),
	), "text", "attribution")
}

type commentForm struct {
	Text string `json:"text"`
}

func (f commentForm) Validate() error {
	return firstError(validation.ValidateStruct(&f,
		validation.Field(&f.Text,
			validation.Required.Error("Comment text is required"),
			validation.RuneLength(0, service.MaxCommentLength).Error("Comment is too long"),
		),
	), "text")
}

type signInForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f signInForm) Validate() error {
	return firstError(validation.ValidateStruct(&f,
		validation.Field(&f.Username,
			validation.Required.Error("Username is required"),
			validation.RuneLength(0, service.MaxUsernameLength).Error("Username is too long"),
		),
		validation.Field(&f.Password,
			validation.Required.Error("Password is required"),
			// bcrypt's limit is in bytes, so Length, not RuneLength.
			validation.Length(0, auth.MaxPasswordBytes).Error("Password must be 72 bytes or fewer"),
		),
	), "username", "password")
}

// firstError turns ozzo's per-field error map into a single
// apperror.ValidationFailed. Fields are checked in the order given so the
// message shown to the user doesn't depend on map iteration.
func firstError(err error, order ...string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, field := range order {
		if fe, ok := fieldErrs[field]; ok && fe != nil {
			return apperror.ValidationFailed(field, fe.Error())
		}
	}
	return apperror.ValidationFailed("", fieldErrs.Error())
}

// parseForm reads the url-encoded body. The body is already capped by
// http.MaxBytesReader, so an oversized post fails here.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, http.StatusText(status), status)
		return false
	}
	return true
}
