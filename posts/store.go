package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

const pgForeignKeyViolation = "23503"

// Store is the Post Store. Reads resolve the author into Post.User. Every
// method that addresses a single post returns an apperror.NotFoundError when
// the id is unknown.
type Store interface {
	// List returns up to limit posts in insertion order, skipping offset.
	List(ctx context.Context, offset, limit int) ([]Post, error)
	Count(ctx context.Context) (int64, error)
	// Latest returns the n most recently created posts, newest first.
	Latest(ctx context.Context, n int) ([]Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	// IncrementViews adds one view and returns the post after the increment.
	IncrementViews(ctx context.Context, id string) (*Post, error)
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) (*Post, error)
	Delete(ctx context.Context, id string) error
}

// PgStore is the PostgreSQL-backed Store.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const selectPostWithAuthor = `
	SELECT p.id, p.title, p.text, p.image_url, p.tags, p.user_id, p.views_count, p.created_at, p.updated_at,
	       u.id, u.email, u.full_name, u.avatar_url, u.role, u.created_at, u.updated_at
	FROM %s p
	JOIN users u ON u.id = p.user_id`

func postQuery(from, tail string) string {
	return fmt.Sprintf(selectPostWithAuthor, from) + "\n" + tail
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	var u auth.User
	err := row.Scan(
		&p.ID, &p.Title, &p.Text, &p.ImageURL, &p.Tags, &p.UserID, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.User = &u
	return &p, nil
}

func (s *PgStore) collect(ctx context.Context, query string, args ...interface{}) ([]Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PgStore) List(ctx context.Context, offset, limit int) ([]Post, error) {
	posts, err := s.collect(ctx, postQuery("posts", "ORDER BY p.seq LIMIT $1 OFFSET $2"), limit, offset)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list posts", err)
	}
	return posts, nil
}

func (s *PgStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, apperror.NewDatabaseError("failed to count posts", err)
	}
	return total, nil
}

func (s *PgStore) Latest(ctx context.Context, n int) ([]Post, error) {
	posts, err := s.collect(ctx, postQuery("posts", "ORDER BY p.seq DESC LIMIT $1"), n)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get latest posts", err)
	}
	return posts, nil
}

func (s *PgStore) one(ctx context.Context, failMessage, query string, args ...interface{}) (*Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("Post was not found", nil)
		}
		return nil, apperror.NewDatabaseError(failMessage, err)
	}
	return p, nil
}

func (s *PgStore) GetByID(ctx context.Context, id string) (*Post, error) {
	return s.one(ctx, "failed to get post", postQuery("posts", "WHERE p.id = $1"), id)
}

// IncrementViews bumps the counter and reads the row back in one statement,
// so concurrent readers never lose an increment.
func (s *PgStore) IncrementViews(ctx context.Context, id string) (*Post, error) {
	query := `WITH bumped AS (
		UPDATE posts SET views_count = views_count + 1 WHERE id = $1
		RETURNING id, title, text, image_url, tags, user_id, views_count, created_at, updated_at
	)` + postQuery("bumped", "")
	return s.one(ctx, "failed to increment views", query, id)
}

func (s *PgStore) Create(ctx context.Context, post *Post) error {
	query := `INSERT INTO posts (id, title, text, image_url, tags, user_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING views_count, created_at, updated_at`
	err := s.db.QueryRow(ctx, query, post.ID, post.Title, post.Text, post.ImageURL, post.Tags, post.UserID).
		Scan(&post.ViewsCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NewNotFoundError("User not found", err)
		}
		return apperror.NewDatabaseError("failed to create post", err)
	}
	return nil
}

func (s *PgStore) Update(ctx context.Context, post *Post) (*Post, error) {
	query := `WITH changed AS (
		UPDATE posts SET title = $2, text = $3, image_url = $4, tags = $5, user_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, title, text, image_url, tags, user_id, views_count, created_at, updated_at
	)` + postQuery("changed", "")
	updated, err := s.one(ctx, "failed to update post", query, post.ID, post.Title, post.Text, post.ImageURL, post.Tags, post.UserID)
	if err != nil && isForeignKeyViolation(err) {
		return nil, apperror.NewNotFoundError("User not found", err)
	}
	return updated, err
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("Post was not found", nil)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
