// Package auth owns credentials and sessions: bcrypt password hashing and the
// signed identity cookie that tells a handler who is making a request.
//
// SESSION FLOW OVERVIEW:
//  1. User posts a name and password to /signin
//  2. The service finds or creates the user and checks the password
//  3. The handler issues a session token and stores it in the "user_id" cookie
//  4. On every later request, ResolveSession reads the cookie, validates the
//     token, and puts the numeric user id in the request context
//
// WHY A SIGNED TOKEN INSTEAD OF THE BARE ID?
// A cookie holding just "42" lets any client claim to be user 42 by editing
// it. The token carries the id in its "sub" claim together with an HMAC
// signature, so an edited cookie simply fails validation and the request is
// treated as anonymous.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"42","iss":"quoter","jti":"...","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup — just the secret.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// issuer is written into every token and required on validation, so a token
// minted by another service sharing the secret is still rejected.
const issuer = "quoter"

// DefaultSessionTTL is how long a session cookie stays valid: 7 days.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenService handles session token creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations; rotating it signs
// everybody out.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A ttl of zero means DefaultSessionTTL.
// Example: QUOTER_AUTH_SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// RandomSecret returns 32 random bytes hex-encoded. It is used when no
// secret is configured; sessions signed with it do not survive a restart.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TTL reports the session lifetime tokens are issued with.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// We use "sub" (Subject) to store the user ID as a decimal string, and "jti"
// (ID) to give every issued token a unique xid.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256)
//   - Symmetric: same key for signing and verifying
//   - Fast and simple, fine for a single-server deployment
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Tests use a negative duration to get an already-expired token.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("auth: cannot issue a session for user id %d", userID)
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token.
// Returns the user id stored in the "sub" claim if the token is valid.
//
// VALIDATION CHECKS:
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired, and carries an expiry at all
//   - Issuer matches "quoter"
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - Subject is a positive base-10 integer
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}
	if userID <= 0 {
		return 0, fmt.Errorf("auth: token subject %d is not a user id", userID)
	}

	return userID, nil
}
