package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	errEmailTaken   = errors.New("email already registered")
	errUserNotFound = errors.New("user not found")
)

type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	FullName            string    `json:"full_name"`
	InstagramUsername   string    `json:"instagram_username,omitempty"`
	IsAdmin             bool      `json:"is_admin"`
	Blocked             bool      `json:"blocked"`
	NameValidationScore int       `json:"name_validation_score"`
	CreatedAt           time.Time `json:"created_at"`
}

type UserStore interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (User, error)
}

// UserFilter narrows the admin user listing. Search matches name or email, case-insensitively.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

const userColumns = `
	id::text, email, password_hash, full_name, COALESCE(instagram_username, ''),
	is_admin, blocked, name_validation_score, created_at`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.InstagramUsername,
		&user.IsAdmin, &user.Blocked, &user.NameValidationScore, &user.CreatedAt,
	)
	return user, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type pgUserStore struct {
	db      *pgxpool.Pool
	observe func(time.Duration)
}

func newPGUserStore(db *pgxpool.Pool, observe func(time.Duration)) *pgUserStore {
	return &pgUserStore{db: db, observe: observe}
}

func (s *pgUserStore) CreateUser(ctx context.Context, user User) (User, error) {
	startedAt := time.Now()
	err := s.db.QueryRow(ctx, `
		INSERT INTO users(email, password_hash, full_name, instagram_username, name_validation_score)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id::text, is_admin, created_at
	`, user.Email, user.PasswordHash, user.FullName, user.InstagramUsername, user.NameValidationScore,
	).Scan(&user.ID, &user.IsAdmin, &user.CreatedAt)
	s.observe(time.Since(startedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, errEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *pgUserStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return s.findUser(ctx, "email = $1", email)
}

func (s *pgUserStore) FindUserByID(ctx context.Context, id string) (User, error) {
	return s.findUser(ctx, "id = $1", id)
}

func (s *pgUserStore) findUser(ctx context.Context, where string, arg string) (User, error) {
	startedAt := time.Now()
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	s.observe(time.Since(startedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (s *pgUserStore) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	startedAt := time.Now()
	search := strings.TrimSpace(filter.Search)
	pattern := ""
	if search != "" {
		pattern = "%" + likeEscaper.Replace(search) + "%"
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE $1 = '' OR full_name ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pattern, filter.Limit, filter.Offset)
	if err != nil {
		s.observe(time.Since(startedAt))
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	s.observe(time.Since(startedAt))
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *pgUserStore) SetBlocked(ctx context.Context, id string, blocked bool) (User, error) {
	startedAt := time.Now()
	user, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE users
		SET blocked = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, blocked))
	s.observe(time.Since(startedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
