// Package auth, as part of the authentication module.
// This file, `handlers.go`, is responsible for handling HTTP requests related to
// authentication, plus the JSON response helpers shared by the other modules.
package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/inkwell/apperror"
)

// Handlers wraps the Service to provide HTTP handlers
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user and returns it with a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 200 {object} auth.AuthResponse "User created"
// @Failure 400 {object} apperror.ErrorResponse "Validation failed"
// @Failure 409 {object} apperror.ErrorResponse "Email already registered"
// @Failure 500 {object} apperror.ErrorResponse "Registration failed"
// @Router /api/auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		resp, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in with email and password and returns the user with a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.AuthResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Malformed body"
// @Failure 404 {object} apperror.ErrorResponse "Wrong username or password"
// @Failure 500 {object} apperror.ErrorResponse "Authorization failed"
// @Router /api/auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// WriteJSON serializes data to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("failed to encode response: %v", err)
		}
	}
}

// WriteError converts any error into a standardized apperror.ErrorResponse.
// Errors that are not AppErrors become a generic 500. Server-side failures are
// logged with their underlying cause; the client only sees the fixed message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("Internal server error", err)
	}

	if appErr.IsServerError() {
		log.Printf("Error processing request %s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), appErr)
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
