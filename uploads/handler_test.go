package uploads

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/inkwell/auth"
	"github.com/user/inkwell/config"
)

var testAuth = &config.AuthConfig{JWTSecret: "uploads-secret", TokenDuration: time.Hour}

func newRouter(t *testing.T, maxBytes int64) (http.Handler, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "files")
	h, err := NewHandler(&config.UploadConfig{Dir: dir, MaxBytes: maxBytes})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r, auth.JWTMiddleware(testAuth))
	return r, dir
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, router http.Handler, withToken bool, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	if withToken {
		token, _, err := auth.GenerateToken(testAuth, "uploader")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadStoresAndServesFile(t *testing.T) {
	router, dir := newRouter(t, 1<<20)
	content := []byte("fake png bytes")

	rec := upload(t, router, true, "image", "Cover.PNG", content)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.URL, PublicPrefix))
	assert.True(t, strings.HasSuffix(resp.URL, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(resp.URL, PublicPrefix)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	require.Equal(t, http.StatusOK, get.Code)
	served, err := io.ReadAll(get.Body)
	require.NoError(t, err)
	assert.Equal(t, content, served)
}

func TestUploadDirectoryIsNotListed(t *testing.T) {
	router, dir := newRouter(t, 1<<20)
	rec := upload(t, router, true, "image", "a.png", []byte("x"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	for _, path := range []string{"/uploads/", "/uploads/nested/", "/uploads/nested"} {
		get := httptest.NewRecorder()
		router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, get.Code, path)
		assert.NotContains(t, get.Body.String(), ".png", path)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	router, dir := newRouter(t, 1<<20)
	rec := upload(t, router, false, "image", "a.png", []byte("x"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRejectsBadRequests(t *testing.T) {
	router, _ := newRouter(t, 256)

	rec := upload(t, router, true, "file", "a.png", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, true, "image", "big.png", bytes.Repeat([]byte("a"), 4096))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanExt(t *testing.T) {
	assert.Equal(t, ".jpg", cleanExt("photo.JPG"))
	assert.Equal(t, "", cleanExt("noext"))
	assert.Equal(t, "", cleanExt("../../etc/passwd"))
	assert.Equal(t, "", cleanExt("evil.p/hp"))
	assert.Equal(t, "", cleanExt("x.verylongextension"))
}
