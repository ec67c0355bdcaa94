// Package auth, as part of the authentication module.
// This file, `middleware.go`, defines the Auth Guard that protects routes
// requiring a signed-in user.
package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/config"
)

const noAccessMessage = "No access"

// bearerToken strips a literal "Bearer " prefix when present. The prefix is
// optional so that clients sending the raw token keep working.
func bearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// JWTMiddleware creates the Auth Guard.
// It verifies the token from the Authorization header and adds the claims and
// user id to the request context. Every failure (no token, bad signature,
// malformed, expired, no user id) gets the same 403 "No access" response so
// callers cannot tell an expired token from a forged one.
func JWTMiddleware(cfg *config.AuthConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r.Header.Get("Authorization"))
			if tokenString == "" {
				WriteError(w, r, apperror.NewUnauthorizedError(noAccessMessage, nil))
				return
			}

			claims, err := ParseToken(cfg, tokenString)
			if err != nil {
				log.Printf("Rejected token [%s]: %v", middleware.GetReqID(r.Context()), err)
				WriteError(w, r, apperror.NewUnauthorizedError(noAccessMessage, nil))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}
