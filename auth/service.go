// Package auth is responsible for handling authentication and authorization logic.
// This includes user registration, login, session token generation and validation,
// and the admin role check.
package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/config"
	"github.com/user/inkwell/validation"
)

const wrongCredentialsMessage = "Wrong username or password"

// Service provides authentication-related operations.
type Service struct {
	users      UserStore
	authConfig *config.AuthConfig
	hashCost   int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new Service. Dependencies are injected explicitly.
func NewService(users UserStore, authConfig *config.AuthConfig) *Service {
	return &Service{
		users:      users,
		authConfig: authConfig,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register validates the request, stores a new user with role "user" and
// returns it together with a fresh session token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if verr := validation.Struct(&req); verr != nil {
		return nil, verr
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperror.NewInternalError("Registration failed", fmt.Errorf("failed to hash password: %w", err))
	}

	user := &User{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
		FullName:       req.FullName,
		AvatarURL:      req.AvatarURL,
		Role:           RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperror.IsConflictError(err) {
			return nil, err
		}
		return nil, apperror.NewDatabaseError("Registration failed", err)
	}

	return s.withToken(user, "Registration failed")
}

// Login authenticates by email and password.
// An unknown email and a wrong password produce the same NotFound error so
// the response does not reveal which accounts exist.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Pay for a bcrypt comparison anyway so timing does not reveal the miss.
			_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(req.Password))
			return nil, apperror.NewNotFoundError(wrongCredentialsMessage, nil)
		}
		log.Printf("Database error in Login when looking up user: %v", err)
		return nil, apperror.NewDatabaseError("Authorization failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewNotFoundError(wrongCredentialsMessage, nil)
	}

	return s.withToken(user, "Authorization failed")
}

// dummyPasswordHash is a hash of a random password at the service's cost,
// compared against when the email is unknown.
func (s *Service) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
		if err != nil {
			log.Printf("Failed to prepare dummy password hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) withToken(user *User, failMessage string) (*AuthResponse, error) {
	token, _, err := GenerateToken(s.authConfig, user.ID)
	if err != nil {
		return nil, apperror.NewInternalError(failMessage, err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}
