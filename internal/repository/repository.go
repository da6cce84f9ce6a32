// Package repository declares the storage contracts the service layer depends on.
// The sqlite subpackage is the only implementation used in production.
package repository

import (
	"context"

	"github.com/sakif/quoter/internal/model"
)

// QuoteRepository stores quotes. Quotes are never updated or deleted.
type QuoteRepository interface {
	// ListQuotes returns every quote in ascending ID order.
	ListQuotes(ctx context.Context) ([]model.Quote, error)
	// GetQuote returns apperror.ErrNotFound when id does not exist.
	GetQuote(ctx context.Context, id int64) (*model.Quote, error)
	// InsertQuote returns apperror.ErrValidation when text is blank.
	InsertQuote(ctx context.Context, text, attribution string) (*model.Quote, error)
}

// CommentRepository stores comments on quotes.
type CommentRepository interface {
	// ListComments returns the comments of a quote in ascending ID order.
	ListComments(ctx context.Context, quoteID int64) ([]model.CommentView, error)
	// InsertComment returns apperror.ErrNotFound when the quote (or a non-nil
	// author) does not exist. No row is written in that case.
	InsertComment(ctx context.Context, text string, quoteID int64, authorID *int64) (*model.Comment, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	// FindUserByName returns apperror.ErrNotFound when no user has that name.
	FindUserByName(ctx context.Context, name string) (*model.User, error)
	// CreateUser returns apperror.ErrConflict when the name is already taken.
	CreateUser(ctx context.Context, name, passwordHash string) (*model.User, error)
}
