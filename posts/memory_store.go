package posts

import (
	"context"
	"sync"
	"time"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
)

// MemoryStore is an in-process Store. Authors are resolved through the given
// UserStore at read time, like the JOIN in PgStore.
type MemoryStore struct {
	mu    sync.Mutex
	users auth.UserStore
	posts []*Post // insertion order
	now   func() time.Time
}

func NewMemoryStore(users auth.UserStore) *MemoryStore {
	return &MemoryStore{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) indexOf(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func copyPost(p *Post) Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	return c
}

func (s *MemoryStore) withAuthor(ctx context.Context, p Post) (Post, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return Post{}, err
	}
	u.HashedPassword = ""
	p.User = u
	return p, nil
}

func (s *MemoryStore) withAuthors(ctx context.Context, posts []Post) ([]Post, error) {
	for i := range posts {
		p, err := s.withAuthor(ctx, posts[i])
		if err != nil {
			return nil, err
		}
		posts[i] = p
	}
	return posts, nil
}

func (s *MemoryStore) List(ctx context.Context, offset, limit int) ([]Post, error) {
	s.mu.Lock()
	page := []Post{}
	for i := offset; i < len(s.posts) && len(page) < limit; i++ {
		page = append(page, copyPost(s.posts[i]))
	}
	s.mu.Unlock()
	return s.withAuthors(ctx, page)
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.posts)), nil
}

func (s *MemoryStore) Latest(ctx context.Context, n int) ([]Post, error) {
	s.mu.Lock()
	latest := []Post{}
	for i := len(s.posts) - 1; i >= 0 && len(latest) < n; i-- {
		latest = append(latest, copyPost(s.posts[i]))
	}
	s.mu.Unlock()
	return s.withAuthors(ctx, latest)
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Post, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, apperror.NewNotFoundError("Post was not found", nil)
	}
	p := copyPost(s.posts[i])
	s.mu.Unlock()

	p, err := s.withAuthor(ctx, p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MemoryStore) IncrementViews(ctx context.Context, id string) (*Post, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, apperror.NewNotFoundError("Post was not found", nil)
	}
	s.posts[i].ViewsCount++
	p := copyPost(s.posts[i])
	s.mu.Unlock()

	p, err := s.withAuthor(ctx, p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, post *Post) error {
	if _, err := s.users.GetByID(ctx, post.UserID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(post.ID) >= 0 {
		return apperror.NewConflictError("post already exists", nil)
	}
	now := s.now()
	post.CreatedAt, post.UpdatedAt = now, now
	post.ViewsCount = 0
	stored := copyPost(post)
	stored.User = nil
	s.posts = append(s.posts, &stored)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, post *Post) (*Post, error) {
	if _, err := s.users.GetByID(ctx, post.UserID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	i := s.indexOf(post.ID)
	if i < 0 {
		s.mu.Unlock()
		return nil, apperror.NewNotFoundError("Post was not found", nil)
	}
	stored := s.posts[i]
	stored.Title = post.Title
	stored.Text = post.Text
	stored.ImageURL = post.ImageURL
	stored.Tags = append([]string{}, post.Tags...)
	stored.UserID = post.UserID
	stored.UpdatedAt = s.now()
	p := copyPost(stored)
	s.mu.Unlock()

	p, err := s.withAuthor(ctx, p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return apperror.NewNotFoundError("Post was not found", nil)
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}
