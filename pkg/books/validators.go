package books

// BookPayload represents one catalog entry in a create request. Copies is a
// pointer so an explicit zero is distinguishable from an omitted field, which
// defaults to one.
type BookPayload struct {
	Title  string `json:"title" mod:"trim" validate:"required,max=500"`
	Author string `json:"author" mod:"trim" validate:"required,max=200"`
	ISBN   string `json:"isbn" mod:"trim" validate:"max=20"`
	Copies *int   `json:"copies" validate:"omitempty,min=0"`
}

// CreateBooksPayload represents the request body for adding books. A single
// request can carry a whole batch.
type CreateBooksPayload struct {
	Books []BookPayload `json:"books" validate:"required,min=1,dive"`
}

// UpdateBookPayload represents the request body for partially updating a
// book. Absent fields are left unchanged.
type UpdateBookPayload struct {
	Title  *string `json:"title" mod:"trim" validate:"omitempty,min=1,max=500"`
	Author *string `json:"author" mod:"trim" validate:"omitempty,min=1,max=200"`
	ISBN   *string `json:"isbn" mod:"trim" validate:"omitempty,max=20"`
	Copies *int    `json:"copies" validate:"omitempty,min=0"`
}

// ListBooksQuery represents the query parameters for listing the catalog.
type ListBooksQuery struct {
	Title     *string `query:"title" mod:"trim"`
	Author    *string `query:"author" mod:"trim"`
	Available *bool   `query:"available"`
	Page      int     `query:"page" default:"1" validate:"min=1"`
	Limit     int     `query:"limit" default:"10" validate:"min=1,max=100"`
}
