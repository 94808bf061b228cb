// Package auth provides the OAuth provider adapter and cookie-session
// handling for the diary API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User visits /auth/login → redirected to the OAuth provider
//  2. Provider calls back /auth/callback with a code
//  3. Server exchanges code for the provider profile, upserts the user
//  4. Server issues a session token, stores it in an HttpOnly cookie
//  5. On subsequent API calls, middleware reads the cookie, validates the
//     token, and sets the user ID in the request context
//
// The session carries exactly one piece of state: the local user ID, in the
// token's "sub" claim. Signing the token (HMAC-SHA256) means the server needs
// no session storage — the cookie can't be forged without the secret.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the cookie the session token travels in.
const SessionCookie = "session"

// DefaultSessionTTL is how long a login lasts before the user has to
// re-authenticate.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Sessions issues and validates the signed session tokens.
// It holds the HMAC secret used to sign and verify — the same secret must be
// used for both, so keep it out of source control.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions creates a Sessions service with the given secret.
// The secret should be at least 32 bytes of random data in production
// (e.g. SESSION_SECRET=$(openssl rand -hex 32)).
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the token payload. The "sub" claim holds the local user ID —
// nothing else about the user is in the cookie.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given user ID.
func (s *Sessions) Issue(userID int64) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "food-diary",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token, returning the user ID.
//
// Passing jwt.WithValidMethods pins the algorithm to HS256 — without it an
// attacker could try an algorithm-confusion attack with an unsigned token.
func (s *Sessions) Validate(tokenStr string) (int64, error) {
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
		jwt.WithIssuer("food-diary"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: session expired")
		}
		return 0, fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid session claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: session has no valid subject")
	}

	return userID, nil
}
