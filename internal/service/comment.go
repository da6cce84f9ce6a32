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

// MsgLoginRequired is shown to anonymous visitors who try to comment.
const MsgLoginRequired = "Login required"

// CommentService enforces who may comment and what a comment may contain.
//
// POLICY: only signed-in users may comment. An anonymous attempt, or a
// session whose user no longer exists, is refused with
// apperror.Forbidden(MsgLoginRequired) and nothing is written.
type CommentService struct {
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, logger: logger}
}

// Add posts text as a comment on quoteID by authorID.
// authorID is nil for anonymous requests.
//
// Errors:
//   - apperror.ErrForbidden  → not signed in
//   - apperror.ErrValidation → empty or overlong text
//   - apperror.ErrNotFound   → the quote doesn't exist
func (s *CommentService) Add(ctx context.Context, quoteID int64, authorID *int64, text string) (*model.Comment, error) {
	if authorID == nil {
		return nil, apperror.Forbidden(MsgLoginRequired)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "Comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("Comment must be %d characters or less", MaxCommentLength))
	}

	comment, err := s.comments.InsertComment(ctx, text, quoteID, authorID)
	if err != nil {
		if apperror.IsNotFoundResource(err, "user") {
			s.logger.Warn("comment from a session with no user",
				slog.Int64("userID", *authorID),
				slog.Int64("quoteID", quoteID),
			)
			return nil, apperror.Forbidden(MsgLoginRequired)
		}
		if apperror.IsNotFoundResource(err, "quote") {
			return nil, err
		}
		return nil, fmt.Errorf("adding comment to quote %d: %w", quoteID, err)
	}

	s.logger.Info("comment created",
		slog.Int64("id", comment.ID),
		slog.Int64("quoteID", quoteID),
		slog.Int64("userID", *authorID),
	)
	return comment, nil
}
