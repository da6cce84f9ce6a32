// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, writes pages and redirects
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository INTERFACES, never *sqlite.DB, so tests can pass
// in-memory fakes and the service never imports the sqlite package.
//
// THE DEPENDENCY CHAIN:
//
//	server.go creates:  DB → Service → Handler
//	At runtime:         Handler calls Service calls Repository calls DB
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/model"
	"github.com/sakif/quoter/internal/repository"
)

// Validation limits, in characters.
const (
	MaxQuoteLength       = 2000
	MaxAttributionLength = 200
	MaxCommentLength     = 2000
)

// QuoteService handles reading and posting quotes.
type QuoteService struct {
	quotes   repository.QuoteRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(quotes repository.QuoteRepository, comments repository.CommentRepository, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		quotes:   quotes,
		comments: comments,
		logger:   logger,
	}
}

// QuoteDetail is everything the quote page shows.
type QuoteDetail struct {
	Quote    *model.Quote
	Comments []model.CommentView
}

// List returns every quote, oldest first.
func (s *QuoteService) List(ctx context.Context) ([]model.Quote, error) {
	quotes, err := s.quotes.ListQuotes(ctx)
	if err != nil {
		s.logger.Error("failed to list quotes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	return quotes, nil
}

// Get returns one quote without its comments.
// Returns apperror.ErrNotFound if the quote doesn't exist.
func (s *QuoteService) Get(ctx context.Context, id int64) (*model.Quote, error) {
	return s.quotes.GetQuote(ctx, id)
}

// Detail returns a quote and its comments.
// Returns apperror.ErrNotFound if the quote doesn't exist.
func (s *QuoteService) Detail(ctx context.Context, id int64) (*QuoteDetail, error) {
	quote, err := s.quotes.GetQuote(ctx, id)
	if err != nil {
		// NotFound is an ordinary outcome here; let it propagate unlogged.
		return nil, err
	}

	comments, err := s.comments.ListComments(ctx, id)
	if err != nil {
		s.logger.Error("failed to list comments",
			slog.Int64("quoteID", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing comments for quote %d: %w", id, err)
	}

	return &QuoteDetail{Quote: quote, Comments: comments}, nil
}

// Create validates and saves a new quote. Anyone may post one.
//
// The service returns apperror.ValidationFailed, never an HTTP status; the
// handler decides that a validation failure becomes a redirect with the
// message in the query string.
func (s *QuoteService) Create(ctx context.Context, text, attribution string) (*model.Quote, error) {
	text = strings.TrimSpace(text)
	attribution = strings.TrimSpace(attribution)

	if text == "" {
		return nil, apperror.ValidationFailed("text", "Quote text is required")
	}
	if utf8.RuneCountInString(text) > MaxQuoteLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("Quote must be %d characters or less", MaxQuoteLength))
	}
	if utf8.RuneCountInString(attribution) > MaxAttributionLength {
		return nil, apperror.ValidationFailed("attribution",
			fmt.Sprintf("Attribution must be %d characters or less", MaxAttributionLength))
	}

	quote, err := s.quotes.InsertQuote(ctx, text, attribution)
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.logger.Info("quote created", slog.Int64("id", quote.ID))
	return quote, nil
}
