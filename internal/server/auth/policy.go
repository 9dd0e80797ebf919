package auth

import (
	"errors"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// errNoPrincipal signals a wiring bug: Require placed before the guard.
var errNoPrincipal = errors.New("access policy evaluated without an authenticated principal")

// Require fails with Forbidden unless p's role is in allowed. A nil p is
// a programming error and yields a non-operational error.
func Require(p *models.User, allowed models.RoleSet) error {
	if p == nil {
		return errNoPrincipal
	}
	if !allowed.Has(p.Role) {
		return common.Forbidden("You do not have permission to perform this action")
	}
	return nil
}
