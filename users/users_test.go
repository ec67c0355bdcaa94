package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

func seedUser(t *testing.T, store auth.UserStore) *auth.User {
	t.Helper()
	u := &auth.User{
		ID:             gofakeit.UUID(),
		Email:          gofakeit.Email(),
		HashedPassword: "not-a-real-hash",
		FullName:       gofakeit.Name(),
		Role:           auth.RoleUser,
	}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestGetUserProfile(t *testing.T) {
	store := auth.NewMemoryUserStore()
	svc := NewUserService(store)
	u := seedUser(t, store)

	profile, err := svc.GetUserProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.ID)
	assert.Equal(t, u.FullName, profile.FullName)
	assert.Equal(t, auth.RoleUser, profile.Role)

	_, err = svc.GetUserProfile(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryUserStore()
	svc := NewUserService(store)
	u := seedUser(t, store)
	check := auth.NewAdminCheck(store)

	require.False(t, check.IsAdmin(ctx, u.ID))

	profile, err := svc.Promote(ctx, PromoteRequest{Email: u.Email, Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, profile.Role)
	assert.True(t, check.IsAdmin(ctx, u.ID))

	_, err = svc.Promote(ctx, PromoteRequest{Email: "nobody@example.com", Role: auth.RoleAdmin})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Promote(ctx, PromoteRequest{Email: u.Email, Role: "root"})
	require.True(t, apperror.IsValidationError(err))
	appErr, _ := apperror.FromError(err)
	assert.Equal(t, []apperror.FieldError{{Field: "role", Message: "Role must be user or admin"}}, appErr.Fields)

	_, err = svc.Promote(ctx, PromoteRequest{Email: u.Email, Role: ""})
	assert.True(t, apperror.IsValidationError(err))

	// A rejected role leaves the account unchanged.
	profile, err = svc.GetUserProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, profile.Role)
}

func TestHandleGetUserProfile(t *testing.T) {
	store := auth.NewMemoryUserStore()
	h := NewUserHandlers(NewUserService(store))
	u := seedUser(t, store)

	claims := &auth.Claims{UserID: u.ID}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(auth.NewContextWithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()
	h.HandleGetUserProfile().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, u.Email, body["email"])
	assert.NotContains(t, rec.Body.String(), "not-a-real-hash")

	missing := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	missing = missing.WithContext(auth.NewContextWithClaims(missing.Context(), &auth.Claims{UserID: "gone"}))
	rec = httptest.NewRecorder()
	h.HandleGetUserProfile().ServeHTTP(rec, missing)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}
