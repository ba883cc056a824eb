package auth

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ADL-backend/internal/platform/apperr"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewService(db *sql.DB, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, tokenTTL: tokenTTL}
}

func validRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}

func (s *Service) Register(ctx context.Context, username, password, role string) (*User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperr.ErrInvalid("missing required field(s)")
	}
	if !validRole(role) {
		return nil, apperr.ErrInvalid("role must be member or admin")
	}

	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, apperr.ErrConflict("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.store.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.UserID = id
	return u, nil
}

// Login はトークンとロールを返す
func (s *Service) Login(ctx context.Context, username, password string) (string, string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if u == nil {
		// ユーザー不在とパスワード違いは同じメッセージにする
		return "", "", apperr.ErrUnauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", "", apperr.ErrUnauthenticated("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(u.UserID, 10),
		"role": u.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return tokenString, u.Role, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if next == "" {
		return apperr.ErrInvalid("new password is required")
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.ErrNotFound("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.ErrUnauthenticated("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	n, err := s.store.UpdatePasswordHash(ctx, userID, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound("user not found")
	}
	return nil
}
