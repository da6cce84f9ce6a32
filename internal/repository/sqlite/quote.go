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

// compile-time check that *DB implements repository.QuoteRepository
var _ repository.QuoteRepository = (*DB)(nil)

// ListQuotes returns all quotes, oldest first.
//
// PARAMETERIZED QUERIES:
// None of the queries in this package build SQL with fmt.Sprintf or string
// concatenation. Values always go through ? placeholders so the driver
// keeps them out of the query text:
//
//	BAD:  "WHERE name = '" + userInput + "'"   ← attacker sends: ' OR 1=1 --
//	GOOD: "WHERE name = ?", userInput
func (db *DB) ListQuotes(ctx context.Context) ([]model.Quote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, text, attribution, created_at
		 FROM quotes
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing quotes: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	quotes := []model.Quote{}
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.ID, &q.Text, &q.Attribution, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning quote row: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating quotes: %w", err)
	}

	return quotes, nil
}

// GetQuote retrieves a single quote by its ID.
// sql.ErrNoRows is translated to apperror.NotFound so the handler can answer 404.
func (db *DB) GetQuote(ctx context.Context, id int64) (*model.Quote, error) {
	var q model.Quote

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, text, attribution, created_at
		 FROM quotes
		 WHERE id = ?`,
		id,
	).Scan(&q.ID, &q.Text, &q.Attribution, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("quote", id)
		}
		return nil, fmt.Errorf("sqlite: getting quote %d: %w", id, err)
	}

	return &q, nil
}

// InsertQuote stores a new quote and returns it with its assigned ID.
//
// The text is trimmed before storage; blank text is rejected here as well as
// by the CHECK constraint, so the caller gets a ValidationError instead of a
// raw constraint failure.
func (db *DB) InsertQuote(ctx context.Context, text, attribution string) (*model.Quote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "Quote text is required")
	}

	q := &model.Quote{
		Text:        text,
		Attribution: strings.TrimSpace(attribution),
		CreatedAt:   time.Now().UTC(),
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO quotes (text, attribution, created_at) VALUES (?, ?, ?)`,
			q.Text,
			q.Attribution,
			q.CreatedAt,
		)
		if err != nil {
			return err
		}
		q.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting quote: %w", err)
	}

	return q, nil
}
