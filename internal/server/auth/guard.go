package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// PrincipalLookup resolves a user id to an active user. It must return
// common.ErrRecordNotFound when no such user exists.
type PrincipalLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Guard turns a presented token into the principal it identifies.
type Guard struct {
	tokens *TokenService
	users  PrincipalLookup
}

func NewGuard(tokens *TokenService, users PrincipalLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// TokenFromRequest prefers an Authorization bearer header over the
// session cookie. The logout placeholder cookie counts as no token.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(common.TokenCookieName); err == nil && c.Value != common.LoggedOutCookieValue {
		return c.Value
	}
	return ""
}

// Authenticate returns the principal for token. Every failure that is
// the caller's fault is Unauthenticated; lookup faults are returned as
// internal errors.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.Unauthenticated("You are not logged in! Please log in to get access.")
	}

	verified, err := g.tokens.Verify(token)
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return nil, common.Unauthenticated("Your token has expired, please log in again")
	case err != nil:
		return nil, common.Unauthenticated("Invalid token. Please log in again!")
	}

	user, err := g.users.FindByID(ctx, verified.UserID)
	if errors.Is(err, common.ErrRecordNotFound) {
		return nil, common.Unauthenticated("The user belonging to this token no longer exists.")
	}
	if err != nil {
		return nil, fmt.Errorf("load principal: %w", err)
	}

	if user.ChangedPasswordAfter(verified.IssuedAt) {
		return nil, common.Unauthenticated("User recently changed password. Please log in again.")
	}

	return user, nil
}

// TryAuthenticate is the optional variant used by rendered pages: any
// failure just means the request is anonymous.
func (g *Guard) TryAuthenticate(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}
	user, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil
	}
	return user
}
