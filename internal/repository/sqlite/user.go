package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/model"
	"github.com/sakif/quoter/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindUserByName looks a user up by login name (case-insensitive).
// Returns apperror.ErrNotFound if nobody has that name yet.
func (db *DB) FindUserByName(ctx context.Context, name string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, password_hash, created_at
		 FROM users WHERE name = ?`,
		name,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", name)
		}
		return nil, fmt.Errorf("sqlite: finding user %q: %w", name, err)
	}

	return &u, nil
}

// CreateUser inserts a new account.
//
// LOOKUP-THEN-INSERT RACES:
// Callers typically run FindUserByName first and only then CreateUser. Two
// requests can both see "not found" and both try to insert. The UNIQUE
// constraint on users.name lets exactly one of them win; the loser gets
// apperror.ErrConflict here and is expected to look the user up again.
func (db *DB) CreateUser(ctx context.Context, name, passwordHash string) (*model.User, error) {
	u := &model.User{
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (name, password_hash, created_at) VALUES (?, ?, ?)`,
			u.Name,
			u.PasswordHash,
			u.CreatedAt,
		)
		if err != nil {
			return err
		}
		u.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", name)
		}
		return nil, fmt.Errorf("sqlite: inserting user %q: %w", name, err)
	}

	return u, nil
}
