package auth

import (
	"fmt"

	"github.com/dom/techxchange/internal/domain"
)

// RoleSet is the set of roles allowed to perform an operation.
type RoleSet map[domain.Role]struct{}

func Roles(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r domain.Role) bool {
	_, ok := s[r]
	return ok
}

// Authorize checks an already-authenticated user against allowed. The user
// must come from the Gate; a nil user is a wiring bug and panics.
func Authorize(user *domain.User, allowed RoleSet) error {
	if allowed.Contains(user.Role) {
		return nil
	}
	return domain.NewError(domain.ErrAuthorization,
		fmt.Sprintf("User role '%s' is not authorized to access this route", user.Role))
}
