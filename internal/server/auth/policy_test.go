package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestRequire(t *testing.T) {
	admin := &models.User{ID: "a", Role: models.RoleAdmin}
	guide := &models.User{ID: "g", Role: models.RoleLeadGuide}
	user := &models.User{ID: "u", Role: models.RoleUser}

	staff := models.Roles(models.RoleAdmin, models.RoleLeadGuide)

	assert.NoError(t, Require(admin, staff))
	assert.NoError(t, Require(guide, staff))

	err := Require(user, staff)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, "You do not have permission to perform this action", common.PublicMessage(err))

	// the empty set admits nobody
	assert.ErrorIs(t, Require(admin, models.Roles()), common.ErrForbidden)
}

func TestRequire_NilPrincipal(t *testing.T) {
	err := Require(nil, models.Roles(models.RoleUser))
	assert.Error(t, err)
	assert.False(t, common.IsOperational(err))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, PrincipalFrom(ctx))

	u := &models.User{ID: "u1"}
	ctx = WithPrincipal(ctx, u)
	assert.Same(t, u, PrincipalFrom(ctx))
}
