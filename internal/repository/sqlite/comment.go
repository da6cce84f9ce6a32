package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/model"
	"github.com/sakif/quoter/internal/repository"
)

// compile-time check that *DB implements repository.CommentRepository
var _ repository.CommentRepository = (*DB)(nil)

// ListComments returns a quote's comments in the order they were written.
//
// LEFT JOIN, NOT JOIN:
// An inner join would silently drop comments whose author row is gone.
// With a LEFT JOIN they still show up, with a NULL name that the
// renderer displays as "anonymous".
func (db *DB) ListComments(ctx context.Context, quoteID int64) ([]model.CommentView, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.quote_id, c.user_id, c.text, c.created_at, u.name
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.quote_id = ?
		 ORDER BY c.id ASC`,
		quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for quote %d: %w", quoteID, err)
	}
	defer rows.Close()

	comments := []model.CommentView{}
	for rows.Next() {
		var (
			cv       model.CommentView
			userID   sql.NullInt64
			userName sql.NullString
		)
		if err := rows.Scan(&cv.ID, &cv.QuoteID, &userID, &cv.Text, &cv.CreatedAt, &userName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		if userID.Valid {
			id := userID.Int64
			cv.UserID = &id
		}
		if userName.Valid {
			name := userName.String
			cv.AuthorName = &name
		}
		cv.LocalTime = cv.CreatedAt.Local()
		comments = append(comments, cv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// InsertComment attaches a new comment to a quote.
//
// The existence checks and the INSERT share one transaction, so the quote
// cannot disappear between "it exists" and "row written". A missing quote
// is reported as NotFound("quote") and nothing is written. A non-nil
// authorID that matches no user is reported as NotFound("user").
func (db *DB) InsertComment(ctx context.Context, text string, quoteID int64, authorID *int64) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "Comment text is required")
	}

	c := &model.Comment{
		QuoteID:   quoteID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := rowExists(ctx, tx, `SELECT 1 FROM quotes WHERE id = ?`, quoteID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("quote", quoteID)
			}
			return err
		}

		if authorID != nil {
			if err := rowExists(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, *authorID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperror.NotFound("user", *authorID)
				}
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO comments (quote_id, user_id, text, created_at) VALUES (?, ?, ?, ?)`,
			c.QuoteID,
			c.UserID, // a nil *int64 is stored as NULL
			c.Text,
			c.CreatedAt,
		)
		if err != nil {
			return err
		}
		c.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting comment on quote %d: %w", quoteID, err)
	}

	return c, nil
}

// rowExists returns sql.ErrNoRows when query matches nothing.
func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	var one int
	return tx.QueryRowContext(ctx, query, args...).Scan(&one)
}
