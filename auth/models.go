// Package auth handles authentication and authorization.
// This file, `models.go`, defines the User record held by the Credential Store.
package auth

import "time"

// Role is the authorization level stored on a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered account.
// The `json:"-"` tag on HashedPassword keeps the hash out of every API response.
type User struct {
	ID             string    `json:"id" example:"8b0e6a8e-3c0e-4c55-9d43-2f3b1c9f5d20"`
	Email          string    `json:"email" example:"reader@example.com"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"fullName" example:"Ada Lovelace"`
	AvatarURL      *string   `json:"avatarUrl,omitempty" example:"https://example.com/ada.png"`
	Role           Role      `json:"role" example:"user"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
