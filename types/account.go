package types

import "time"

// Account represents a credential record of the postgres backend.
type Account struct {
	// ID is a UUID assigned on sign up.
	ID string `json:"id"`

	// Email is the unique, lower-cased login.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string `json:"-"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last update timestamp.
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity returns the session identity of the account.
func (a Account) Identity() Identity {
	email := a.Email
	return Identity{ID: a.ID, Email: &email}
}
