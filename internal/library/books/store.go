package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"ADL-backend/internal/platform/apperr"
	"ADL-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

const bookColumns = `book_id, title, author, isbn, category, total_copies, available_copies, created_at`

func scanBook(row interface{ Scan(dest ...any) error }) (*Book, error) {
	var b Book
	if err := row.Scan(
		&b.BookID, &b.Title, &b.Author, &b.ISBN, &b.Category,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// List: 検索条件は必ずプレースホルダで束縛する（文字列連結禁止）
func (s *Store) List(ctx context.Context, q SearchQuery) ([]Book, error) {
	var sb strings.Builder
	args := []any{}

	sb.WriteString(`SELECT ` + bookColumns + ` FROM books WHERE 1=1`)

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		sb.WriteString(` AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	if q.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, q.Category)
	}
	sb.WriteString(` ORDER BY title ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE book_id = ?`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) ExistsISBN(ctx context.Context, isbn string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = ?)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, isbn).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) Insert(ctx context.Context, b *Book, now time.Time) error {
	const q = `
	INSERT INTO books
	(title, author, isbn, category, total_copies, available_copies, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		b.Title, nullStrOrNil(b.Author), b.ISBN, b.Category,
		b.TotalCopies, b.AvailableCopies, now,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	b.CreatedAt = now
	return nil
}

// ExecDelete: 貸出履歴が1件でも残っている本は消さない。参照チェックと
// DELETE は同一トランザクションで行う（FKエラー頼みにしない）。
func (s *Store) ExecDelete(ctx context.Context, bookID int64) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM books WHERE book_id = ?)`, bookID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.ErrNotFound("book not found")
		}

		var referenced bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM borrows WHERE book_id = ?)`, bookID,
		).Scan(&referenced); err != nil {
			return err
		}
		if referenced {
			return apperr.ErrConflict("cannot delete book: active borrows or transactions exist")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, bookID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return apperr.ErrNotFound("book not found")
		}
		return nil
	})
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
