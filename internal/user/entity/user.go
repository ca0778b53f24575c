package entity

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrNoAuthMethod = errors.New("user needs a password or a provider id")
)

// User is the profile projection of a row in the `users` table. It never
// carries the password digest; see Credentials.
type User struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Email       string    `db:"email"`
	Role        Role      `db:"role"`
	GoogleID    *string   `db:"google_id"`
	PhotoURL    *string   `db:"photo_url"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Credentials is the credential-bearing read, used only by password login.
type Credentials struct {
	User
	PasswordHash *string `db:"password_hash"`
}

// HasPassword reports whether the account can log in with a password.
func (c *Credentials) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}

// Identity is the minimal projection returned by "who am I".
type Identity struct {
	Name  string `db:"name"`
	Email string `db:"email"`
	Role  Role   `db:"role"`
}

// NewUser carries the initial field values for a new account.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash *string
	GoogleID     *string
	PhotoURL     *string
	Role         Role
}

// Validate checks the invariants every stored account must satisfy.
func (n *NewUser) Validate() error {
	if n.Role == "" {
		n.Role = DefaultRole
	}
	if !n.Role.Valid() {
		return ErrInvalidRole
	}
	hasPassword := n.PasswordHash != nil && *n.PasswordHash != ""
	hasProvider := n.GoogleID != nil && *n.GoogleID != ""
	if !hasPassword && !hasProvider {
		return ErrNoAuthMethod
	}
	return nil
}
