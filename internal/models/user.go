package models

import "time"

// Role tags assigned to users
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a registered account. MFACode and MFACodeExpires are either
// both set or both nil; a code is valid only while the clock is strictly
// before the expiry.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Roles          []string   `json:"roles"`
	MFAEnabled     bool       `json:"mfa_enabled"`
	MFACode        *string    `json:"-"`
	MFACodeExpires *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Sanitized returns a copy safe to hand outside the service layer: the
// password hash and any pending MFA challenge are stripped.
func (u *User) Sanitized() *User {
	clean := *u
	clean.PasswordHash = ""
	clean.MFACode = nil
	clean.MFACodeExpires = nil
	return &clean
}

// HasRole reports whether the user carries the given role tag.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
