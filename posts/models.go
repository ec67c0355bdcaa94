// Package posts holds the blog posts: their storage, the listing and tag
// contracts, view counting, and the HTTP handlers for /api/posts.
package posts

import (
	"time"

	"github.com/user/inkwell/auth"
)

// Post is a blog entry together with its resolved author.
type Post struct {
	ID         string     `json:"id" example:"0b6f3c1e-5a8e-4f0a-9a0c-2f4e7d9b1c11"`
	Title      string     `json:"title" example:"Hello, world"`
	Text       string     `json:"text" example:"First post, written in **markdown**."`
	TextHTML   string     `json:"textHtml,omitempty"`
	ImageURL   *string    `json:"imageUrl,omitempty" example:"/uploads/5d1c.png"`
	Tags       []string   `json:"tags"`
	UserID     string     `json:"-"`
	User       *auth.User `json:"user"`
	ViewsCount int64      `json:"viewsCount" example:"42"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
