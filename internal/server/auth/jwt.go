// Package auth implements identity tokens, credential hashing, the
// request guard that resolves a token to a principal, and role-based
// access checks.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries only the subject and the registered timestamps. Tokens
// are signed, not encrypted, so nothing secret goes in here.
type Claims struct {
	jwt.RegisteredClaims
}

// VerifiedToken is what a valid token asserts.
type VerifiedToken struct {
	UserID   string
	IssuedAt time.Time
}

// TokenService issues and verifies HS256 identity tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	validity time.Duration
	clock    clock.Clock
}

func NewTokenService(secret string, validity time.Duration, c clock.Clock) *TokenService {
	return &TokenService{secret: []byte(secret), validity: validity, clock: c}
}

func (s *TokenService) Issue(userID string) (string, error) {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns common.ErrTokenExpired for a well-signed token past its
// expiry and common.ErrInvalidToken for anything else that fails.
func (s *TokenService) Verify(tokenString string) (*VerifiedToken, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, common.ErrInvalidToken
	}

	return &VerifiedToken{UserID: claims.Subject, IssuedAt: claims.IssuedAt.Time}, nil
}

// Validity is the configured token lifetime.
func (s *TokenService) Validity() time.Duration { return s.validity }
