package services

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// selfEditable lists the profile fields a user may change on their own
// account. Role and active are deliberately absent.
var selfEditable = []string{"name", "email", "photo"}

type ProfileService struct {
	Deps
	log logging.Logger
}

func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{Deps: d, log: d.Log.With("module", "profile")}
}

// UpdateMe applies the self-editable fields of body to user. Any other
// field is dropped; password fields are refused outright.
func (s *ProfileService) UpdateMe(ctx context.Context, user *models.User, body map[string]any) (*models.User, error) {
	_, hasPassword := body["password"]
	_, hasConfirm := body["passwordConfirm"]
	if hasPassword || hasConfirm {
		return nil, common.ValidationFailed("This route is not for password updates. Please use /updateMyPassword.", nil)
	}

	updated := *user
	for _, key := range selfEditable {
		v, ok := body[key]
		if !ok {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, common.ValidationFailed("Invalid input data. "+key+" must be a string", nil)
		}
		switch key {
		case "name":
			updated.Name = str
		case "email":
			updated.Email = str
		case "photo":
			updated.Photo = str
		}
	}

	updated.Prepare()
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return s.RepoManager.Users(s.DB).UpdateProfile(ctx, &updated)
}

// DeleteMe deactivates the account. The row stays; the user disappears
// from every lookup and list.
func (s *ProfileService) DeleteMe(ctx context.Context, userID string) error {
	if err := s.RepoManager.Users(s.DB).Deactivate(ctx, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "account deactivated", "user_id", userID)
	return nil
}
