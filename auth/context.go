// Package auth, as part of the authentication module.
// This file, `context.go`, carries the verified session through the request's
// context.Context so that downstream handlers receive the identity explicitly.
package auth

import (
	"context"
)

// `contextKey` is a custom type for context keys, so keys from other packages cannot collide.
type contextKey string

const (
	claimsContextKey contextKey = "auth_claims"
	userIDContextKey contextKey = "userID"
)

// NewContextWithClaims returns a child context carrying the claims and the user id they name.
func NewContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, userIDContextKey, claims.UserID)
}

// ClaimsFromContext extracts the Claims stored by NewContextWithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// GetUserIDFromContext retrieves the authenticated user's id.
// Returns "" and false when the request did not pass through JWTMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
