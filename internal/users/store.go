package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidRole = errors.New("invalid role")
)

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CreatedAt  int64  `json:"created_at"`
	LastSeenAt *int64 `json:"last_seen_at,omitempty"`
}

type Store interface {
	// Ensure records the user on first sight and refreshes last_seen_at.
	Ensure(ctx context.Context, id, email string) (User, error)
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

// ValidRole reports whether role can be stored. The empty role is a
// regular learner.
func ValidRole(role string) bool { return role == "" || role == "admin" }

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Ensure(ctx context.Context, id, email string) (User, error) {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, role, created_at, last_seen_at)
		VALUES ($1, $2, '', $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		  email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE users.email END,
		  last_seen_at = excluded.last_seen_at`,
		id, email, now, now)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id string) (User, error) {
	var u User
	var seen sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, role, created_at, last_seen_at FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt, &seen)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if seen.Valid {
		u.LastSeenAt = &seen.Int64
	}
	return u, nil
}

func (s *SQLStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, role, created_at, last_seen_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		var seen sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt, &seen); err != nil {
			return nil, err
		}
		if seen.Valid {
			v := seen.Int64
			u.LastSeenAt = &v
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetRole(ctx context.Context, id, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
