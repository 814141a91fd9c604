package borrows

// BorrowPayload represents the request body for borrowing a book.
type BorrowPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}

// ReturnPayload represents the request body for returning a book.
type ReturnPayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}
