package domain

import (
	"errors"
	"time"
)

// User is the principal entity: the identity a session lineage belongs to.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleVoter
	}
	return nil
}
