package lending

import (
	"context"
	"database/sql"
	"time"

	"ADL-backend/internal/platform/apperr"
	"ADL-backend/internal/platform/db"
)

const returnFailedMsg = "invalid transaction id, book already returned, or you are not the borrower"

type Store struct{ db *sql.DB }

func NewStore(sqlDB *sql.DB) *Store { return &Store{db: sqlDB} }

// ---- Transactional Methods ----

// ExecBorrow は貸出1件をひとつのTxで確定する:
// 本の存在確認 → 同一(利用者, 本)の未返却チェック → 在庫デクリメント → 台帳INSERT。
// デクリメントは available_copies >= 1 を条件に入れた1文のUPDATEで行う。
// 最後の1冊への同時貸出はここで片方だけ成功する（lost update 対策）。
func (s *Store) ExecBorrow(ctx context.Context, m *Borrow) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var bookExists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM books WHERE book_id = ?)`, m.BookID,
		).Scan(&bookExists); err != nil {
			return err
		}
		if !bookExists {
			return apperr.ErrNotFound("book not found")
		}

		var alreadyBorrowed bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM borrows WHERE user_id = ? AND book_id = ? AND return_date IS NULL)`,
			m.UserID, m.BookID,
		).Scan(&alreadyBorrowed); err != nil {
			return err
		}
		if alreadyBorrowed {
			return apperr.ErrConflict("you have already borrowed this book")
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = available_copies - 1 WHERE book_id = ? AND available_copies >= 1`,
			m.BookID,
		)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff == 0 {
			return apperr.ErrConflict("no available copies to borrow")
		}

		const q = `
	INSERT INTO borrows
	(borrow_ulid, user_id, book_id, borrow_date, due_date, return_date)
	VALUES (?, ?, ?, ?, ?, NULL)`
		ins, err := tx.ExecContext(ctx, q, m.BorrowULID, m.UserID, m.BookID, m.BorrowDate, m.DueDate)
		if err != nil {
			return err
		}
		id, _ := ins.LastInsertId()
		m.BorrowID = id
		return nil
	})
}

// ExecReturnByID / ExecReturnByULID は返却1件をひとつのTxで確定する。
// 対象は台帳行のID（book_idだけでは過去の返却済み行と曖昧になるので不可）。
func (s *Store) ExecReturnByID(ctx context.Context, userID, borrowID int64, now time.Time) error {
	return s.execReturn(ctx, userID, `borrow_id = ?`, borrowID, now)
}

func (s *Store) ExecReturnByULID(ctx context.Context, userID int64, ulid string, now time.Time) error {
	return s.execReturn(ctx, userID, `borrow_ulid = ?`, ulid, now)
}

func (s *Store) execReturn(ctx context.Context, userID int64, cond string, arg any, now time.Time) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var borrowID, bookID int64
		err := tx.QueryRowContext(ctx,
			`SELECT borrow_id, book_id FROM borrows WHERE `+cond+` AND user_id = ? AND return_date IS NULL`,
			arg, userID,
		).Scan(&borrowID, &bookID)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperr.ErrConflict(returnFailedMsg)
			}
			return err
		}

		// return_date IS NULL を条件に残して二重返却をここでも弾く
		res, err := tx.ExecContext(ctx,
			`UPDATE borrows SET return_date = ? WHERE borrow_id = ? AND return_date IS NULL`,
			now, borrowID,
		)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return apperr.ErrConflict(returnFailedMsg)
		}

		inc, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = available_copies + 1 WHERE book_id = ?`,
			bookID,
		)
		if err != nil {
			return err
		}
		if aff, _ := inc.RowsAffected(); aff != 1 {
			return apperr.ErrInternal("failed to update books.available_copies")
		}
		return nil
	})
}

// ---- Queries ----

func (s *Store) GetByID(ctx context.Context, borrowID int64) (*Borrow, error) {
	const q = `
	SELECT borrow_id, borrow_ulid, user_id, book_id, borrow_date, due_date, return_date
	FROM borrows WHERE borrow_id = ?`
	var m Borrow
	err := s.db.QueryRowContext(ctx, q, borrowID).Scan(
		&m.BorrowID, &m.BorrowULID, &m.UserID, &m.BookID,
		&m.BorrowDate, &m.DueDate, &m.ReturnDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound("borrow not found")
		}
		return nil, err
	}
	return &m, nil
}

// ListByUser: 書誌情報つきで利用者の台帳を返す。
// 全件は borrow_date 降順、未返却のみの場合は返却期限の近い順。
func (s *Store) ListByUser(ctx context.Context, userID int64, f ListFilter) ([]BorrowWithBook, error) {
	q := `
	SELECT
	br.borrow_id, br.borrow_ulid, br.user_id, br.book_id, br.borrow_date, br.due_date, br.return_date,
	b.title, b.author
	FROM borrows br
	JOIN books b ON b.book_id = br.book_id
	WHERE br.user_id = ?`
	if f.OnlyOpen {
		q += ` AND br.return_date IS NULL ORDER BY br.due_date ASC`
	} else {
		q += ` ORDER BY br.borrow_date DESC`
	}

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BorrowWithBook
	for rows.Next() {
		var r BorrowWithBook
		if err := rows.Scan(
			&r.BorrowID, &r.BorrowULID, &r.UserID, &r.BookID,
			&r.BorrowDate, &r.DueDate, &r.ReturnDate,
			&r.Title, &r.Author,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// 整合性確認用: total_copies - 未返却数 と available_copies の突き合わせ
func (s *Store) CountOpenByBook(ctx context.Context, bookID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM borrows WHERE book_id = ? AND return_date IS NULL`
	var n int
	if err := s.db.QueryRowContext(ctx, q, bookID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
