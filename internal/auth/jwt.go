// Package auth provides session tokens, password hashing, the optional
// GitHub OAuth provider and the middleware that reads the session cookie.
//
// SESSION FLOW:
//  1. User logs in (password form or GitHub) → server issues a signed JWT
//  2. The JWT is stored in the "token" HttpOnly cookie
//  3. On every request, middleware validates the cookie and puts the
//     caller's Identity (user ID + username) in the request context
//  4. Logout deletes the cookie
//
// WHY JWT?
// The token carries everything the pages need (who is signed in, and their
// display name), so rendering the header never hits the database. The
// HMAC signature means nobody can forge or edit it without the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "codefixer"

// DefaultSessionTTL is used when NewTokenService is given a zero TTL.
const DefaultSessionTTL = 24 * time.Hour

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used both to sign and to verify tokens, and the
// session lifetime stamped into each token's "exp" claim. Changing the
// secret signs everyone out, since every existing token stops verifying.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and session
// lifetime. The secret should be at least 32 bytes of random data in
// production, e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate. The session cookie's
// MaxAge uses the same value.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// claims is the JWT payload.
//
// CLAIMS:
//   - sub  internal user ID (RegisteredClaims.Subject)
//   - name username, shown in the page header
//   - iss  always "codefixer"; Validate rejects anything else
//   - iat / exp  issue and expiry times
//
// The payload is only base64-encoded, not encrypted: anyone holding the
// cookie can read it. Nothing secret goes in here.
type claims struct {
	Username string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for id.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it
// encodes.
//
// The jwt library checks the signature, expiry and issuer. Passing
// jwt.WithValidMethods rejects "alg: none" and any non-HS256 token
// (algorithm confusion).
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
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
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Username: c.Username}, nil
}
