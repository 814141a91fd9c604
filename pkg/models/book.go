package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AuthorID  int       `bun:",nullzero" json:"author_id"`
	Title     string    `bun:",nullzero" json:"title"`
	ISBN      string    `bun:"isbn" json:"isbn"`

	// Relations
	Author *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Copies []*Copy `bun:"rel:has-many,join:id=book_id" json:"copies,omitempty"`
}
