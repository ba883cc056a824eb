package lending

import "time"

// ===== Requests =====

type BorrowRequest struct {
	BookID int64 `json:"book_id" binding:"required"`
}

// ===== Responses =====

type BorrowResponse struct {
	BorrowID   int64      `json:"borrow_id"`
	BorrowULID string     `json:"borrow_ulid"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// my-books 用（書誌情報つき）
type MyBookResponse struct {
	BorrowID   int64      `json:"borrow_id"`
	BorrowULID string     `json:"borrow_ulid"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BookAuthor *string    `json:"book_author,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func buildBorrowResponse(b *Borrow) BorrowResponse {
	resp := BorrowResponse{
		BorrowID:   b.BorrowID,
		BorrowULID: b.BorrowULID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate,
		DueDate:    b.DueDate,
	}
	if b.ReturnDate.Valid {
		val := b.ReturnDate.Time
		resp.ReturnDate = &val
	}
	return resp
}

func buildMyBookResponse(r *BorrowWithBook) MyBookResponse {
	resp := MyBookResponse{
		BorrowID:   r.BorrowID,
		BorrowULID: r.BorrowULID,
		BookID:     r.BookID,
		BookTitle:  r.Title,
		BorrowDate: r.BorrowDate,
		DueDate:    r.DueDate,
	}
	if r.Author.Valid {
		val := r.Author.String
		resp.BookAuthor = &val
	}
	if r.ReturnDate.Valid {
		val := r.ReturnDate.Time
		resp.ReturnDate = &val
	}
	return resp
}
