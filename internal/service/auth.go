package service

// AuthService is the business logic layer for signing in. It sits between
// the HTTP handler and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt)
//
// Issuing the session cookie is an HTTP concern and stays in the handler.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/quoter/internal/apperror"
	"github.com/sakif/quoter/internal/auth"
	"github.com/sakif/quoter/internal/model"
	"github.com/sakif/quoter/internal/repository"
)

// MaxUsernameLength caps user names, in characters.
const MaxUsernameLength = 64

// MsgInvalidPassword is shown when a known user gives the wrong password.
const MsgInvalidPassword = "Invalid password!"

// AuthService handles sign-in and implicit sign-up.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// NormalizeUsername lowercases and trims a submitted user name.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SignIn signs a user in, creating the account on first use.
//
//  1. Unknown name → create the user with a bcrypt hash of password
//  2. Known name, right password → that user
//  3. Known name, wrong password → ValidationFailed(MsgInvalidPassword)
//
// CONCURRENT SIGN-UP:
// Two requests for the same new name can both miss in FindUserByName. The
// UNIQUE constraint lets only one CreateUser through; the other gets
// apperror.ErrConflict. The loser then looks the user up again and checks
// its password against the winner's hash, so with matching passwords both
// requests sign in as the same user.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*model.User, error) {
	name := NormalizeUsername(username)
	if name == "" {
		return nil, apperror.ValidationFailed("username", "Username is required")
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be %d characters or less", MaxUsernameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}

	user, err := s.users.FindUserByName(ctx, name)
	switch {
	case err == nil:
		return s.checkPassword(user, password)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up %q: %w", name, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user, err = s.users.CreateUser(ctx, name, hash)
	if err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating user %q: %w", name, err)
		}

		// Another request created this name first.
		s.logger.Info("sign-up raced with another request", slog.String("name", name))
		user, err = s.users.FindUserByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("service/auth: re-reading user %q after conflict: %w", name, err)
		}
		return s.checkPassword(user, password)
	}

	s.logger.Info("user signed up", slog.Int64("userID", user.ID), slog.String("name", user.Name))
	return user, nil
}

func (s *AuthService) checkPassword(user *model.User, password string) (*model.User, error) {
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.ValidationFailed("password", MsgInvalidPassword)
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}
	return user, nil
}
