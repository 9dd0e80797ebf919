package auth

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal attaches the authenticated user to ctx.
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey, u)
}

// PrincipalFrom returns the user attached by WithPrincipal, or nil.
func PrincipalFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(principalKey).(*models.User)
	return u
}
