package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// ResetFlow implements forgotten-password recovery with single-use,
// short-lived tokens. Only a digest of each token is stored.
type ResetFlow struct {
	Deps
	validity time.Duration
	log      logging.Logger
}

func NewResetFlow(d Deps, validity time.Duration) *ResetFlow {
	return &ResetFlow{Deps: d, validity: validity, log: d.Log.With("module", "reset")}
}

// RequestReset stores a fresh token digest for the user with email and
// returns the raw token for delivery.
func (f *ResetFlow) RequestReset(ctx context.Context, email string) (string, *models.User, error) {
	repo := f.RepoManager.Users(f.DB)

	user, err := repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, common.ErrRecordNotFound) {
		return "", nil, common.NotFound("There is no user with that email address.")
	}
	if err != nil {
		return "", nil, err
	}

	raw, digest, err := auth.NewResetToken()
	if err != nil {
		return "", nil, err
	}
	if err := repo.SetResetToken(ctx, user.ID, digest, f.Clock.Now().Add(f.validity)); err != nil {
		return "", nil, fmt.Errorf("store reset token: %w", err)
	}
	return raw, user, nil
}

// SendReset requests a token and mails a link ending in it. When the
// mail cannot be handed off the stored token is withdrawn again.
func (f *ResetFlow) SendReset(ctx context.Context, email, linkBase string) error {
	raw, user, err := f.RequestReset(ctx, email)
	if err != nil {
		return err
	}

	link := strings.TrimRight(linkBase, "/") + "/" + raw
	if err := f.Mail.SendPasswordReset(ctx, user, link); err != nil {
		if cerr := f.RepoManager.Users(f.DB).ClearResetToken(ctx, user.ID); cerr != nil {
			f.log.Error(ctx, "withdraw reset token", "user_id", user.ID, "error", cerr)
		}
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ConsumeReset sets a new password for the holder of raw. The lookup and
// the write run in one transaction with the row locked, so a token can
// be redeemed at most once. Wrong and expired tokens fail identically.
func (f *ResetFlow) ConsumeReset(ctx context.Context, raw, password, confirm string) (*models.User, string, error) {
	if err := models.ValidatePassword(password, confirm); err != nil {
		return nil, "", err
	}
	hash, err := f.Hasher.Hash(ctx, password)
	if err != nil {
		return nil, "", err
	}

	digest := auth.HashResetToken(raw)
	var user *models.User

	err = dbx.WithTx(ctx, f.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := f.RepoManager.Users(tx)
		now := f.Clock.Now()

		u, err := repo.FindByResetToken(ctx, digest, now)
		if errors.Is(err, common.ErrRecordNotFound) {
			return common.ResetTokenInvalid()
		}
		if err != nil {
			return err
		}

		changedAt := now.Add(-passwordChangeSkew)
		if err := repo.UpdatePassword(ctx, u.ID, hash, changedAt); err != nil {
			return err
		}
		u.PasswordHash = hash
		u.PasswordChangedAt = &changedAt
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
		user = u
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := f.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
