package lending

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"ADL-backend/internal/platform/apperr"
)

// 貸出期間は14日固定
const loanPeriod = 14 * 24 * time.Hour

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// 貸出登録
func (s *Service) Borrow(ctx context.Context, userID int64, req BorrowRequest) (*BorrowResponse, error) {
	if userID <= 0 {
		return nil, apperr.ErrUnauthenticated("invalid principal")
	}
	if req.BookID <= 0 {
		return nil, apperr.ErrInvalid("book_id must be > 0")
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := &Borrow{
		BorrowULID: idStr,
		UserID:     userID,
		BookID:     req.BookID,
		BorrowDate: now,
		DueDate:    now.Add(loanPeriod),
	}

	if err := s.store.ExecBorrow(ctx, m); err != nil {
		return nil, err
	}

	resp := buildBorrowResponse(m)
	return &resp, nil
}

// 返却登録。key は borrow_id（数値）か borrow_ulid。
// book_id では指定させない：同じ本を借り直した履歴があると行を特定できないため。
func (s *Service) Return(ctx context.Context, userID int64, key string) error {
	if userID <= 0 {
		return apperr.ErrUnauthenticated("invalid principal")
	}
	if key == "" {
		return apperr.ErrInvalid("borrow id is required")
	}

	now := s.clock.Now()

	// 数値として解釈できればID、それ以外は borrow_ulid とみなす
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return s.store.ExecReturnByID(ctx, userID, id, now)
	}
	return s.store.ExecReturnByULID(ctx, userID, key, now)
}

// 自分の貸出一覧
func (s *Service) ListMine(ctx context.Context, userID int64, f ListFilter) ([]MyBookResponse, error) {
	if userID <= 0 {
		return nil, apperr.ErrUnauthenticated("invalid principal")
	}

	items, err := s.store.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	out := make([]MyBookResponse, 0, len(items))
	for i := range items {
		out = append(out, buildMyBookResponse(&items[i]))
	}
	return out, nil
}

// 貸出単一取得
func (s *Service) Get(ctx context.Context, borrowID int64) (*BorrowResponse, error) {
	m, err := s.store.GetByID(ctx, borrowID)
	if err != nil {
		return nil, err
	}
	resp := buildBorrowResponse(m)
	return &resp, nil
}
