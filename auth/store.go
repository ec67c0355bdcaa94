package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/inkwell/apperror"
)

const pgUniqueViolation = "23505"

// UserStore is the Credential Store: it persists user records and looks them up.
// Lookups of a missing user return an apperror.NotFoundError.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetRole(ctx context.Context, email string, role Role) (*User, error)
}

// PgUserStore is the PostgreSQL-backed UserStore.
type PgUserStore struct {
	db *pgxpool.Pool
}

// NewPgUserStore creates a PgUserStore on top of an existing pool.
func NewPgUserStore(db *pgxpool.Pool) *PgUserStore {
	return &PgUserStore{db: db}
}

const userColumns = `id, email, password_hash, full_name, avatar_url, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.AvatarURL, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PgUserStore) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, password_hash, full_name, avatar_url, role)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, query, user.ID, user.Email, user.HashedPassword, user.FullName, user.AvatarURL, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return apperror.NewConflictError("email already exists", nil)
		}
		return apperror.NewDatabaseError("failed to create user", err)
	}
	return nil
}

func (s *PgUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by id", err)
	}
	return user, nil
}

func (s *PgUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return user, nil
}

func (s *PgUserStore) SetRole(ctx context.Context, email string, role Role) (*User, error) {
	query := `UPDATE users SET role = $2, updated_at = now() WHERE email = $1 RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRow(ctx, query, strings.ToLower(email), role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update user role", err)
	}
	return user, nil
}

// MemoryUserStore is an in-process UserStore used by tests and local tooling.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserStore returns an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return apperror.NewConflictError("email already exists", nil)
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	s.byID[user.ID] = &stored
	s.byEmail[email] = user.ID
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryUserStore) SetRole(_ context.Context, email string, role Role) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	u := s.byID[id]
	u.Role = role
	u.UpdatedAt = s.now()
	copied := *u
	return &copied, nil
}
