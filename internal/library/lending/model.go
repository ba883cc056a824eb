package lending

import (
	"database/sql"
	"time"
)

// Borrow は borrows テーブルの1行（台帳エントリ）を表す。
// return_date が NULL の行は「貸出中」。一度set したら二度と書き換えない。
type Borrow struct {
	BorrowID   int64
	BorrowULID string
	UserID     int64
	BookID     int64
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
}

// BorrowWithBook は一覧表示用に書誌情報を足したもの
type BorrowWithBook struct {
	Borrow
	Title  string
	Author sql.NullString
}

// 自分の貸出一覧の絞り込み
type ListFilter struct {
	OnlyOpen bool // true なら未返却のみ、due_date 昇順で返す
}
