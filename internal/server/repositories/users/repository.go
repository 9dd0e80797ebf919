package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// Repository is the credential store. Lookups only see active users and
// return common.ErrRecordNotFound otherwise.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, id, digest string, expires time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// FindByResetToken locks the matching row until the surrounding
	// transaction ends.
	FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, user *models.User) (*models.User, error)
	Deactivate(ctx context.Context, id string) error
}
