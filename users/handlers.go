package users

import (
	"net/http"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

// UserHandlers provides HTTP handlers for user profile management.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// HandleGetUserProfile godoc
// @Summary Get current user's profile
// @Description Retrieves the profile information for the currently authenticated user.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserProfileResponse "Successfully retrieved user profile"
// @Failure 403 {object} apperror.ErrorResponse "No access"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/auth/me [get]
func (h *UserHandlers) HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("No access", nil))
			return
		}

		profile, err := h.service.GetUserProfile(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, profile)
	}
}
