package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Borrow records one loan of a copy to a user. A borrow is active while
// return_date is null; setting return_date is the terminal transition.
type Borrow struct {
	bun.BaseModel `bun:"table:borrows,alias:bw"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	CopyID     int        `bun:",nullzero" json:"copy_id"`
	UserID     int        `bun:",nullzero" json:"user_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`

	// Relations
	Copy *Copy `bun:"rel:belongs-to,join:copy_id=id" json:"copy,omitempty"`
	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// Active reports whether the loan is still open.
func (b *Borrow) Active() bool {
	return b.ReturnDate == nil
}
