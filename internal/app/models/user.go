package models

import (
	"time"
)

// Account is a login credential managed by this service
type Account struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email" example:"guru@sekolah.sch.id"` // Stored lower-cased, unique
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserRole is the authorization role attached to an identity
type UserRole struct {
	UserID    string    `json:"id" db:"user_id"`
	Role      RoleType  `json:"role" db:"role" example:"user"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the role grants administrative access.
func (r *UserRole) IsAdmin() bool {
	return r != nil && r.Role == RoleAdmin
}
