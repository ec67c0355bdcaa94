package users

import (
	"context"
	"log"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
	"github.com/user/inkwell/validation"
)

// UserService provides methods for user profile management.
type UserService struct {
	users auth.UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users auth.UserStore) *UserService {
	return &UserService{users: users}
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *UserService) GetUserProfile(ctx context.Context, userID string) (*UserProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("Failed to get user profile", err)
	}
	return toProfile(user), nil
}

// Promote sets the role of an existing account. It is the only way a role
// ever changes; there is no HTTP route for it.
func (s *UserService) Promote(ctx context.Context, req PromoteRequest) (*UserProfileResponse, error) {
	if verr := validation.Struct(&req); verr != nil {
		return nil, verr
	}
	if !req.Role.Valid() {
		return nil, apperror.NewValidationError("validation failed", []apperror.FieldError{
			{Field: "role", Message: "Role must be user or admin"},
		})
	}

	user, err := s.users.SetRole(ctx, req.Email, req.Role)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("Failed to update user role", err)
	}
	log.Printf("Role of %s set to %s", user.Email, user.Role)
	return toProfile(user), nil
}
