package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        string    `bun:",nullzero" json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash
	IsAdmin      bool      `json:"is_admin"`
}

// Identity is the claims value handed to policy checks. It carries only what
// authorization decisions need.
type Identity struct {
	ID      int
	IsAdmin bool
}

// Identity derives the authorization claims for the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, IsAdmin: u.IsAdmin}
}

// CanView reports whether the identity may read the given user's data. Users
// can always see themselves; admins can see everyone.
func (id Identity) CanView(userID int) bool {
	return id.IsAdmin || id.ID == userID
}
