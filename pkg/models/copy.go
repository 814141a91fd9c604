package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Copy is one physical lendable instance of a book. The borrowed flag is the
// single source of truth for availability.
type Copy struct {
	bun.BaseModel `bun:"table:copies,alias:c"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `bun:",nullzero" json:"book_id"`
	Borrowed  bool      `json:"borrowed"`

	// Relations
	Book *Book `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
}
