// Package handler contains the HTTP request handlers for Quoter.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming HTTP request (URL params, form body, session)
//  2. Call the service layer
//  3. Render a page, redirect, or map the error (see response.go)
//
// Handlers hold no business rules; those live in internal/service.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/service"
	"github.com/sakif/quoter/internal/view"
)

// QuoteHandler serves the feed, quote pages, and the quote and comment forms.
type QuoteHandler struct {
	quotes   *service.QuoteService
	comments *service.CommentService
	view     *view.Renderer
	logger   *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(
	quotes *service.QuoteService,
	comments *service.CommentService,
	renderer *view.Renderer,
	logger *slog.Logger,
) *QuoteHandler {
	return &QuoteHandler{
		quotes:   quotes,
		comments: comments,
		view:     renderer,
		logger:   logger,
	}
}

// HandleIndex renders the feed.
//
// HTTP: GET /?error=<message>
func (h *QuoteHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.List(r.Context())
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	userID, signedIn := auth.UserIDFromContext(r.Context())
	page, err := h.view.MainPage(quotes, userID, signedIn, r.URL.Query().Get("error"))
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	writeHTML(w, http.StatusOK, page)
}

// HandleShow renders one quote and its comments.
//
// HTTP: GET /quotes/{id}?error=<message>
func (h *QuoteHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(r)
	if !ok {
		notFound(w)
		return
	}

	detail, err := h.quotes.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "/")
		return
	}

	userID, signedIn := auth.UserIDFromContext(r.Context())
	page, err := h.view.QuoteDetail(*detail.Quote, detail.Comments, userID, signedIn, r.URL.Query().Get("error"))
	if err != nil {
		internalError(w, r, h.logger, err)
		return
	}

	writeHTML(w, http.StatusOK, page)
}

// HandleCreate posts a new quote. Anyone may post.
//
// HTTP: POST /quotes   form: text, attribution
//
// Success lands at the bottom of the feed, where the new quote is.
func (h *QuoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	form := quoteForm{
		Text:        r.PostForm.Get("text"),
		Attribution: r.PostForm.Get("attribution"),
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, h.logger, err, "/")
		return
	}

	if _, err := h.quotes.Create(r.Context(), form.Text, form.Attribution); err != nil {
		writeError(w, r, h.logger, err, "/")
		return
	}

	seeOther(w, r, "/#bottom")
}

// HandleComment posts a comment on a quote. Requires a session.
//
// HTTP: POST /quotes/{id}/comments   form: text
//
// Checks run in this order:
//  1. the quote must exist, else 404 (for anonymous visitors too)
//  2. a session is required, else back to the quote page with "Login required"
//  3. the comment text must be valid
//
// The insert re-checks the quote inside its transaction, so a quote
// removed between 1 and the insert is still a 404.
func (h *QuoteHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(r)
	if !ok {
		notFound(w)
		return
	}
	back := "/quotes/" + strconv.FormatInt(id, 10)

	if _, err := h.quotes.Get(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err, back)
		return
	}

	userID, signedIn := auth.UserIDFromContext(r.Context())
	if !signedIn {
		writeError(w, r, h.logger, apperror.Forbidden(service.MsgLoginRequired), back)
		return
	}

	if !parseForm(w, r) {
		return
	}
	form := commentForm{Text: r.PostForm.Get("text")}
	if err := form.Validate(); err != nil {
		writeError(w, r, h.logger, err, back)
		return
	}

	if _, err := h.comments.Add(r.Context(), id, &userID, form.Text); err != nil {
		writeError(w, r, h.logger, err, back)
		return
	}

	seeOther(w, r, back+"#bottom")
}

// quoteID reads the {id} URL parameter. The route pattern only admits
// digits, but a value too large for int64 still fails here and is treated
// as a quote that doesn't exist.
func quoteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
