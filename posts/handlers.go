package posts

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service     PostService
	requireAuth func(http.Handler) http.Handler
}

// NewPostHandler creates a PostHandler. requireAuth guards the write routes,
// normally auth.JWTMiddleware.
func NewPostHandler(service PostService, requireAuth func(http.Handler) http.Handler) *PostHandler {
	return &PostHandler{service: service, requireAuth: requireAuth}
}

// RegisterRoutes mounts the post routes on a router scoped to /api/posts.
func (h *PostHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.list)
	router.Get("/tags", h.lastTags)
	router.Get("/{id}", h.getOne)

	router.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

// list godoc
// @Summary List posts
// @Description Returns one page of posts in creation order with the total number of posts.
// @Tags Posts
// @Produce json
// @Param page query int false "1-based page number" default(1)
// @Param pageSize query int false "Posts per page" default(5)
// @Success 200 {object} posts.ListResponse
// @Failure 500 {object} apperror.ErrorResponse "Failed to get posts"
// @Router /api/posts [get]
func (h *PostHandler) list(w http.ResponseWriter, r *http.Request) {
	page, pageSize := ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("pageSize"))

	resp, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// lastTags godoc
// @Summary Get last 5 tags from posts
// @Tags Posts
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} apperror.ErrorResponse "Failed to get tags"
// @Router /api/posts/tags [get]
func (h *PostHandler) lastTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.LastTags(r.Context())
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, tags)
}

// getOne godoc
// @Summary Retrieve a single post by ID
// @Description Counts a view and returns the post with its rendered text.
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} posts.Post
// @Failure 404 {object} apperror.ErrorResponse "Post was not found"
// @Failure 500 {object} apperror.ErrorResponse "Failed to return post"
// @Router /api/posts/{id} [get]
func (h *PostHandler) getOne(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, post)
}

// create godoc
// @Summary Create a new post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post body posts.PostRequest true "Post"
// @Success 200 {object} posts.Post
// @Failure 400 {object} apperror.ErrorResponse "Validation failed"
// @Failure 403 {object} apperror.ErrorResponse "No access"
// @Failure 500 {object} apperror.ErrorResponse "Failed to create post"
// @Router /api/posts [post]
func (h *PostHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewUnauthorizedError("No access", nil))
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, post)
}

// update godoc
// @Summary Update a post by ID
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param post body posts.PostRequest true "Post"
// @Success 200 {object} posts.UpdateResponse
// @Failure 400 {object} apperror.ErrorResponse "Validation failed"
// @Failure 403 {object} apperror.ErrorResponse "No access"
// @Failure 404 {object} apperror.ErrorResponse "Post not found"
// @Failure 500 {object} apperror.ErrorResponse "Failed to update post"
// @Router /api/posts/{id} [put]
func (h *PostHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewUnauthorizedError("No access", nil))
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, UpdateResponse{Success: true, UpdatedPost: post})
}

// remove godoc
// @Summary Delete a post by ID
// @Description Allowed for the author of the post and for admins.
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} posts.SuccessResponse
// @Failure 403 {object} apperror.ErrorResponse "No access"
// @Failure 404 {object} apperror.ErrorResponse "Post was not found"
// @Failure 500 {object} apperror.ErrorResponse "Failed to delete post"
// @Router /api/posts/{id} [delete]
func (h *PostHandler) remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewUnauthorizedError("No access", nil))
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (PostRequest, bool) {
	defer r.Body.Close()
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return req, false
	}
	return req, true
}
