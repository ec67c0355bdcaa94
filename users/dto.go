// Package users handles the signed-in user's own profile and the
// administrative role changes made from the command line.
package users

import (
	"time"

	"github.com/user/inkwell/auth"
)

// UserProfileResponse represents the data returned for a user profile.
// @Description User profile information
type UserProfileResponse struct {
	// example: 3f2b8f0e-6c1a-4d35-9a53-2b3f61f1c0aa
	ID string `json:"id"`
	// example: reader@example.com
	Email string `json:"email"`
	// example: Ada Lovelace
	FullName string `json:"fullName"`
	// example: https://example.com/ada.png
	AvatarURL *string `json:"avatarUrl,omitempty"`
	// example: user
	Role auth.Role `json:"role"`
	// example: 2024-01-15T10:30:00Z
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PromoteRequest changes the role of the account registered under Email.
type PromoteRequest struct {
	Email string    `json:"email" validate:"required,email" message:"Incorrect email format"`
	Role  auth.Role `json:"role" validate:"required" message:"Role must be user or admin"`
}

func toProfile(u *auth.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
