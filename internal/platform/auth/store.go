package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) (int64, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT user_id, username, password_hash, role, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&u.UserID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
SELECT user_id, username, password_hash, role, created_at
FROM users
WHERE user_id = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&u.UserID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) (int64, error) {
	const q = `
INSERT INTO users (username, password_hash, role, created_at)
VALUES (?, ?, ?, ?)
`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) (int64, error) {
	const q = `UPDATE users SET password_hash = ? WHERE user_id = ?`
	res, err := s.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
