// Package auth provides authentication and authorization functionality
// This file, `dto.go` (Data Transfer Object), defines structures used for
// transferring data in API requests and responses related to authentication.
package auth

// RegisterRequest represents the registration request payload.
// `validate` tags are checked by the validation package; `message` is the
// text reported for the field when its rule fails.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email" message:"Incorrect email format" example:"reader@example.com"`
	Password  string  `json:"password" validate:"min=6" message:"Password should consist of at least 6 characters" example:"strongpassword123"`
	FullName  string  `json:"fullName" validate:"min=3" message:"Enter a name of at least 3 characters" example:"Ada Lovelace"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url" message:"Wrong avatar URL" example:"https://example.com/ada.png"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" example:"reader@example.com"`
	Password string `json:"password" example:"strongpassword123"`
}

// AuthResponse is returned by register and login: the user's public fields
// flattened next to the session token.
type AuthResponse struct {
	*User
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}
