package lending

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewStore(db), mock, db
}

func existsRows(v bool) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"exists"})
	if v {
		return r.AddRow(1)
	}
	return r.AddRow(0)
}

// 貸出: 3チェック+2書き込みが1つのTxに入り、成功時にCOMMITされること
func TestExecBorrowCommitsSingleTx(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := &Borrow{BorrowULID: "01TESTULID", UserID: 7, BookID: 3, BorrowDate: now, DueDate: now.Add(14 * 24 * time.Hour)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM books WHERE book_id = \?\)`).
		WithArgs(int64(3)).
		WillReturnRows(existsRows(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM borrows WHERE user_id = \? AND book_id = \? AND return_date IS NULL\)`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(existsRows(false))
	mock.ExpectExec(`UPDATE books SET available_copies = available_copies - 1 WHERE book_id = \? AND available_copies >= 1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO borrows`).
		WithArgs("01TESTULID", int64(7), int64(3), m.BorrowDate, m.DueDate).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	if err := store.ExecBorrow(context.Background(), m); err != nil {
		t.Fatalf("ExecBorrow error: %v", err)
	}
	if m.BorrowID != 42 {
		t.Fatalf("BorrowID = %d, want 42", m.BorrowID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// 在庫切れ（デクリメント対象行なし）のときはINSERTせずROLLBACKすること
func TestExecBorrowRollsBackWhenNoCopies(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	m := &Borrow{BorrowULID: "01TESTULID", UserID: 7, BookID: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM books WHERE book_id = \?\)`).
		WillReturnRows(existsRows(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM borrows`).
		WillReturnRows(existsRows(false))
	mock.ExpectExec(`UPDATE books SET available_copies = available_copies - 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := store.ExecBorrow(context.Background(), m); err == nil {
		t.Fatal("want error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// 返却: 対象行が見つからなければ一切書き込まずROLLBACKすること
func TestExecReturnRollsBackWhenNoOpenRow(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT borrow_id, book_id FROM borrows WHERE borrow_id = \? AND user_id = \? AND return_date IS NULL`).
		WithArgs(int64(5), int64(7)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := store.ExecReturnByID(context.Background(), 7, 5, time.Now())
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// 返却成功: return_date 書き込みとインクリメントが同じTxでCOMMITされること
func TestExecReturnCommitsSingleTx(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT borrow_id, book_id FROM borrows WHERE borrow_ulid = \? AND user_id = \? AND return_date IS NULL`).
		WithArgs("01TESTULID", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"borrow_id", "book_id"}).AddRow(5, 3))
	mock.ExpectExec(`UPDATE borrows SET return_date = \? WHERE borrow_id = \? AND return_date IS NULL`).
		WithArgs(now, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE books SET available_copies = available_copies \+ 1 WHERE book_id = \?`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.ExecReturnByULID(context.Background(), 7, "01TESTULID", now); err != nil {
		t.Fatalf("ExecReturnByULID error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
