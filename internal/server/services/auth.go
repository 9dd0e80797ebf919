// Package services contains server-side business logic: account
// lifecycle (signup, login, password change and reset, profile) and the
// generic resource service behind the CRUD endpoints.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/mail"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/repomanager"
)

// passwordChangeSkew backdates password_changed_at so that a token
// issued in the same second as the change still verifies.
const passwordChangeSkew = time.Second

// Deps groups the collaborators shared by the account services.
type Deps struct {
	DB          *sql.DB
	RepoManager repomanager.RepositoryManager
	Tokens      *auth.TokenService
	Hasher      *auth.Hasher
	Mail        mail.Sender
	Clock       clock.Clock
	Log         logging.Logger
	// PublicURL is the externally visible base URL used in emails.
	PublicURL string
}

type SignupInput struct {
	Name            string
	Email           string
	Photo           string
	Password        string
	PasswordConfirm string
}

type AuthService struct {
	Deps
	log logging.Logger
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{Deps: d, log: d.Log.With("module", "auth")}
}

// Signup always creates a plain user; the role cannot be chosen here.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	user := &models.User{
		Name:  in.Name,
		Email: in.Email,
		Photo: in.Photo,
		Role:  models.RoleUser,
	}
	user.Prepare()
	if err := user.Validate(); err != nil {
		return nil, "", err
	}
	if err := models.ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, "", err
	}

	hash, err := s.Hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = hash

	user, err = s.RepoManager.Users(s.DB).Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	if err := s.Mail.SendWelcome(ctx, user, strings.TrimRight(s.PublicURL, "/")+"/me"); err != nil {
		s.log.Warn(ctx, "welcome mail failed", "user_id", user.ID, "error", err)
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ValidationFailed("Please provide email and password!", nil)
	}

	incorrect := common.Unauthenticated("Incorrect email or password")

	user, err := s.RepoManager.Users(s.DB).FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, common.ErrRecordNotFound) {
		return nil, "", incorrect
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := s.Hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", incorrect
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdateMyPassword replaces the password of an authenticated user after
// checking the current one. Tokens issued before the change stop working.
func (s *AuthService) UpdateMyPassword(ctx context.Context, userID, current, password, confirm string) (*models.User, string, error) {
	repo := s.RepoManager.Users(s.DB)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	ok, err := s.Hasher.Compare(ctx, user.PasswordHash, current)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", common.Unauthenticated("Your current password is wrong.")
	}

	if err := models.ValidatePassword(password, confirm); err != nil {
		return nil, "", err
	}
	hash, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		return nil, "", err
	}

	changedAt := s.Clock.Now().Add(-passwordChangeSkew)
	if err := repo.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return nil, "", fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
