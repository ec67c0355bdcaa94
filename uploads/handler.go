// Package uploads stores post images on local disk and serves them back.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
	"github.com/user/inkwell/config"
)

const (
	formField = "image"
	// PublicPrefix is where stored files are served from.
	PublicPrefix = "/uploads/"
)

// UploadResponse carries the public URL of a stored file.
type UploadResponse struct {
	URL string `json:"url" example:"/uploads/4b7e1f0c-9d1e-4b1a-8f61-6a1f2f1c2b3d.png"`
}

// Handler saves uploaded images into cfg.Dir.
type Handler struct {
	cfg *config.UploadConfig
}

// NewHandler creates the upload directory if needed.
func NewHandler(cfg *config.UploadConfig) (*Handler, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", cfg.Dir, err)
	}
	return &Handler{cfg: cfg}, nil
}

// RegisterRoutes mounts POST /upload behind requireAuth and the static file
// server under PublicPrefix.
func (h *Handler) RegisterRoutes(router chi.Router, requireAuth func(http.Handler) http.Handler) {
	router.With(requireAuth).Post("/upload", h.HandleUpload())
	router.Handle(PublicPrefix+"*", http.StripPrefix(PublicPrefix, http.FileServer(filesOnly{http.Dir(h.cfg.Dir)})))
}

// filesOnly hides directories from http.FileServer so the upload directory
// cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// HandleUpload godoc
// @Summary Upload an image
// @Description Stores the file sent in the multipart field "image" and returns its public URL.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 200 {object} uploads.UploadResponse
// @Failure 400 {object} apperror.ErrorResponse "Missing or oversized file"
// @Failure 403 {object} apperror.ErrorResponse "No access"
// @Failure 500 {object} apperror.ErrorResponse "Failed to save file"
// @Router /upload [post]
func (h *Handler) HandleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes)
		file, header, err := r.FormFile(formField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				auth.WriteError(w, r, apperror.NewBadRequestError("File is too large", err))
				return
			}
			auth.WriteError(w, r, apperror.NewBadRequestError("No file in field \"image\"", err))
			return
		}
		defer file.Close()

		name := uuid.NewString() + cleanExt(header.Filename)
		if err := h.save(name, file); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				auth.WriteError(w, r, apperror.NewBadRequestError("File is too large", err))
				return
			}
			auth.WriteError(w, r, apperror.NewInternalError("Failed to save file", err))
			return
		}

		log.Printf("Stored upload %s (%d bytes)", name, header.Size)
		auth.WriteJSON(w, http.StatusOK, UploadResponse{URL: path.Join(PublicPrefix, name)})
	}
}

func (h *Handler) save(name string, src io.Reader) error {
	dst, err := os.OpenFile(filepath.Join(h.cfg.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return err
	}
	return dst.Close()
}

// cleanExt keeps the client's extension only when it is short and plain.
func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
