// Package models holds the persistent entities of the account service and
// the patch types used to update them.
package models

import "time"

// Account is the authentication identity. Email is stored lower-cased.
type Account struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"is_active"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the account holds the admin role.
func (a *Account) IsAdmin() bool {
	if a == nil {
		return false
	}
	switch a.Role.Name {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}
