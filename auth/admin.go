package auth

import (
	"context"
	"log"

	"github.com/user/inkwell/apperror"
)

// AdminCheck answers whether a user currently holds the admin role.
type AdminCheck struct {
	users UserStore
}

// NewAdminCheck creates an AdminCheck over the Credential Store.
func NewAdminCheck(users UserStore) *AdminCheck {
	return &AdminCheck{users: users}
}

// IsAdmin fails closed: a missing user and a failed lookup both answer false,
// exactly like a user whose role is not admin. The role is read on every call
// so a promotion or demotion applies to the next request.
func (a *AdminCheck) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			log.Printf("Error checking admin status for user %s: %v", userID, err)
		}
		return false
	}
	return user.Role == RoleAdmin
}
