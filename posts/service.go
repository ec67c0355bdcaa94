package posts

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/validation"
)

// PostService defines the post operations exposed over HTTP.
type PostService interface {
	List(ctx context.Context, page, pageSize int) (*ListResponse, error)
	LastTags(ctx context.Context) ([]string, error)
	GetOne(ctx context.Context, id string) (*Post, error)
	Create(ctx context.Context, userID string, req PostRequest) (*Post, error)
	Update(ctx context.Context, userID, id string, req PostRequest) (*Post, error)
	Delete(ctx context.Context, userID, id string) error
}

// AdminChecker reports whether a user holds the admin role. auth.AdminCheck
// is the production implementation.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) bool
}

type postServiceImpl struct {
	store  Store
	admins AdminChecker
}

// NewPostService creates a PostService on top of a Store.
func NewPostService(store Store, admins AdminChecker) PostService {
	return &postServiceImpl{store: store, admins: admins}
}

// ParsePage reads the page and pageSize query values. Anything missing,
// non-numeric or not positive falls back to the defaults.
func ParsePage(pageParam, pageSizeParam string) (page, pageSize int) {
	return positiveOr(pageParam, DefaultPage), positiveOr(pageSizeParam, DefaultPageSize)
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return fallback
	}
	return int(n)
}

// List returns one page of posts in insertion order. totalCount comes from a
// separate count, so a page past the end is empty but still reports the total.
func (s *postServiceImpl) List(ctx context.Context, page, pageSize int) (*ListResponse, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	posts, err := s.store.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to get posts", err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to get posts", err)
	}
	return &ListResponse{Posts: posts, TotalCount: total}, nil
}

// LastTags flattens the tags of the newest posts, newest first, and keeps at
// most LastTagsLimit of them. Duplicates are kept.
func (s *postServiceImpl) LastTags(ctx context.Context) ([]string, error) {
	latest, err := s.store.Latest(ctx, LastTagsLimit)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to get tags", err)
	}

	tags := []string{}
	for _, p := range latest {
		tags = append(tags, p.Tags...)
	}
	if len(tags) > LastTagsLimit {
		tags = tags[:LastTagsLimit]
	}
	return tags, nil
}

// GetOne counts a view and returns the post after the increment.
func (s *postServiceImpl) GetOne(ctx context.Context, id string) (*Post, error) {
	post, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("Post was not found", nil)
		}
		return nil, apperror.NewDatabaseError("Failed to return post", err)
	}
	post.TextHTML = RenderText(post.Text)
	return post, nil
}

func (s *postServiceImpl) Create(ctx context.Context, userID string, req PostRequest) (*Post, error) {
	req = cleanRequest(req)
	if verr := validation.Struct(&req); verr != nil {
		return nil, verr
	}

	post := &Post{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Text:     req.Text,
		ImageURL: req.ImageURL,
		Tags:     []string(req.Tags),
		UserID:   userID,
	}
	if err := s.store.Create(ctx, post); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewForbiddenError("No access", err)
		}
		return nil, apperror.NewDatabaseError("Failed to create post", err)
	}

	created, err := s.store.GetByID(ctx, post.ID)
	if err != nil {
		return nil, apperror.NewDatabaseError("Failed to create post", err)
	}
	return created, nil
}

// Update replaces the editable fields and re-stamps the author with the caller.
func (s *postServiceImpl) Update(ctx context.Context, userID, id string, req PostRequest) (*Post, error) {
	req = cleanRequest(req)
	if verr := validation.Struct(&req); verr != nil {
		return nil, verr
	}

	updated, err := s.store.Update(ctx, &Post{
		ID:       id,
		Title:    req.Title,
		Text:     req.Text,
		ImageURL: req.ImageURL,
		Tags:     []string(req.Tags),
		UserID:   userID,
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			if _, lookupErr := s.store.GetByID(ctx, id); apperror.IsNotFound(lookupErr) {
				return nil, apperror.NewNotFoundError("Post not found", nil)
			}
			return nil, apperror.NewForbiddenError("No access", err)
		}
		return nil, apperror.NewDatabaseError("Failed to update post", err)
	}
	return updated, nil
}

// Delete removes a post when the caller wrote it or is an admin.
func (s *postServiceImpl) Delete(ctx context.Context, userID, id string) error {
	post, err := s.store.GetByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFoundError("Post was not found", nil)
		}
		return apperror.NewDatabaseError("Failed to delete post", err)
	}

	if post.UserID != userID && !s.admins.IsAdmin(ctx, userID) {
		return apperror.NewForbiddenError("No access", nil)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFoundError("Post was not found", nil)
		}
		return apperror.NewDatabaseError("Failed to delete post", err)
	}
	return nil
}

// cleanRequest trims the tags and drops blank ones. Title and tags are stored
// as sent; escaping is left to whatever renders them as HTML.
func cleanRequest(req PostRequest) PostRequest {
	tags := make(TagList, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	req.Tags = tags
	if req.ImageURL != nil && *req.ImageURL == "" {
		req.ImageURL = nil
	}
	return req
}
