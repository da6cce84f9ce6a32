// Package view renders Quoter's HTML pages.
//
// Rendering is pure: the same arguments always produce the same bytes, and
// nothing here touches the network, the database or the clock.
//
// ESCAPING:
// Templates are html/template, which escapes every interpolated value for
// the context it lands in (element text, attribute, URL). Quote text,
// attributions, comment text, author names and error messages are passed as
// plain strings, so none of them can reach the page as markup. No exported
// function accepts template.HTML.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/sakif/quoter/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// defaultTitle is the page title everywhere except a quote's own page.
const defaultTitle = "Quoter XP"

// anonymous is shown for comments whose author is unknown.
const anonymous = "anonymous"

// timeLayout is how comment timestamps are displayed.
const timeLayout = "2006-01-02 15:04:05"

// Renderer turns domain data into HTML documents.
// It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Must is like New but panics on error. Templates are compiled into the
// binary, so a failure here is a programming error.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// page is the data every template sees.
type page struct {
	Title    string
	SignedIn bool
	Error    string
	Quotes   []model.Quote
	Quote    model.Quote
	Comments []commentItem
}

// commentItem is a comment prepared for display.
type commentItem struct {
	Text     string
	Author   string
	Time     string
	DateTime string
	Own      bool
}

// MainPage renders the feed of every quote. errMsg, when non-empty, is shown
// in the sign-in dialog, which is then opened on load.
func (r *Renderer) MainPage(quotes []model.Quote, currentUserID int64, signedIn bool, errMsg string) ([]byte, error) {
	return r.execute("main", page{
		Title:    defaultTitle,
		SignedIn: signedIn && currentUserID > 0,
		Error:    errMsg,
		Quotes:   quotes,
	})
}

// QuoteDetail renders one quote with its comments. The comment form is only
// shown to signed-in users; their own comments get an extra "own" class.
func (r *Renderer) QuoteDetail(quote model.Quote, comments []model.CommentView, currentUserID int64, signedIn bool, errMsg string) ([]byte, error) {
	signedIn = signedIn && currentUserID > 0

	items := make([]commentItem, 0, len(comments))
	for _, c := range comments {
		item := commentItem{
			Text:   c.Text,
			Author: anonymous,
			Own:    signedIn && c.UserID != nil && *c.UserID == currentUserID,
		}
		if c.AuthorName != nil {
			item.Author = *c.AuthorName
		}
		if !c.LocalTime.IsZero() {
			item.Time = c.LocalTime.Format(timeLayout)
			item.DateTime = c.LocalTime.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	title := quote.Text
	if title == "" {
		title = defaultTitle
	}

	return r.execute("detail", page{
		Title:    title,
		SignedIn: signedIn,
		Error:    errMsg,
		Quote:    quote,
		Comments: items,
	})
}

// execute renders into a buffer first so a template error never leaves a
// half-written page on the wire.
func (r *Renderer) execute(name string, data page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("view: rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
