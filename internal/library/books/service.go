package books

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"

	"ADL-backend/internal/platform/apperr"
)

type Service struct {
	db    *sql.DB
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{db: db, store: NewStore(db)} }

func (s *Service) List(ctx context.Context, q SearchQuery) ([]BookResponse, error) {
	items, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, bookID int64) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(b)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (*BookResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.ISBN) == "" ||
		strings.TrimSpace(in.Category) == "" {
		return nil, apperr.ErrInvalid("missing title, ISBN, category, or total copies")
	}
	if in.TotalCopies <= 0 {
		return nil, apperr.ErrInvalid("total_copies must be a positive integer")
	}

	taken, err := s.store.ExistsISBN(ctx, in.ISBN)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ErrConflict("isbn already exists")
	}

	b := &Book{
		Title:    in.Title,
		ISBN:     in.ISBN,
		Category: in.Category,
		// 登録時点では全冊貸出可能
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
	}
	if in.Author != nil && *in.Author != "" {
		b.Author.String = *in.Author
		b.Author.Valid = true
	}

	if err := s.store.Insert(ctx, b, time.Now().UTC()); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			// UNIQUE制約の保険（事前チェックとINSERTの間の競合）
			return nil, apperr.ErrConflict("isbn already exists")
		}
		return nil, err
	}

	resp := toResponse(b)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, bookID int64) error {
	return s.store.ExecDelete(ctx, bookID)
}
