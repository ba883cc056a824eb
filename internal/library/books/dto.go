package books

import "time"

// ===== Requests =====

type CreateBookRequest struct {
	Title       string  `json:"title" binding:"required"`
	Author      *string `json:"author,omitempty"`
	ISBN        string  `json:"isbn" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	TotalCopies int     `json:"total_copies" binding:"required"`
}

// ===== Responses =====

type BookResponse struct {
	BookID          int64     `json:"book_id"`
	Title           string    `json:"title"`
	Author          *string   `json:"author,omitempty"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

func toResponse(b *Book) BookResponse {
	resp := BookResponse{
		BookID:          b.BookID,
		Title:           b.Title,
		ISBN:            b.ISBN,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
	if b.Author.Valid {
		val := b.Author.String
		resp.Author = &val
	}
	return resp
}
