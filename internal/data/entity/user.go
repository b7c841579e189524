package entity

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User is the only persisted entity. Secrets are tagged json:"-" so that
// even an accidental encode of the entity never leaks them.
type User struct {
	Base
	FirstName     string     `db:"first_name"`
	LastName      string     `db:"last_name"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password" json:"-"`
	Role          UserRole   `db:"role"`
	IsActive      bool       `db:"is_active"`
	EmailVerified bool       `db:"email_verified"`
	LastLoginAt   *time.Time `db:"last_login_at"`
	Phone         *string    `db:"phone"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	Address       *string    `db:"address"`
	Avatar        *string    `db:"avatar"`

	// Digests of the single-use tokens, never the tokens themselves.
	EmailVerificationToken *string    `db:"email_verification_token" json:"-"`
	PasswordResetToken     *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires   *time.Time `db:"password_reset_expires" json:"-"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Sanitized returns a copy without the password hash and single-use tokens.
func (u *User) Sanitized() *User {
	clone := *u
	clone.PasswordHash = ""
	clone.EmailVerificationToken = nil
	clone.PasswordResetToken = nil
	clone.PasswordResetExpires = nil
	return &clone
}

// NormalizeEmail is applied before every write and lookup so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	InactiveUsers int64
	AdminUsers    int64
	NewUsersToday int64
}
