package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/inkwell/config"
)

// Claims is the Session Claim carried by every token: the user id plus the
// registered iat/exp claims. Nothing about it is persisted server side.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var errMissingUserID = errors.New("user_id claim is missing")

// GenerateToken signs a session token for userID that expires after cfg.TokenDuration.
func GenerateToken(cfg *config.AuthConfig, userID string) (string, time.Time, error) {
	if cfg.JWTSecret == "" {
		return "", time.Time{}, errors.New("missing secret")
	}
	now := time.Now()
	expirationTime := now.Add(cfg.TokenDuration)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns its claims.
// A token without an exp claim or without a user id is rejected.
func ParseToken(cfg *config.AuthConfig, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.UserID == "" {
		return nil, errMissingUserID
	}
	return claims, nil
}
