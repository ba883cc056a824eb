package books

import (
	"database/sql"
	"time"
)

// Book は books テーブルの1行を表す
type Book struct {
	BookID          int64
	Title           string
	Author          sql.NullString
	ISBN            string
	Category        string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

// 蔵書検索の条件
type SearchQuery struct {
	Search   string // title/author の部分一致（大文字小文字は区別しない）
	Category string // 完全一致
}
