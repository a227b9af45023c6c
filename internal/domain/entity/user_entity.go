package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
//
// A freshly registered user is active but not verified; login is refused
// until the confirmation token has been redeemed.
type User struct {
	ID          string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	IsVerified  bool
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins first and last name with a single space.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user carries an administrative override.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// UserProfile holds extended, user-editable attributes.
// One-to-one with User, created during registration.
type UserProfile struct {
	UserID         string
	Bio            string
	Gender         string // "male", "female" or empty
	AvatarURL      string
	PublishedPosts int
}
