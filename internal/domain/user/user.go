// Package user holds the account aggregate.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/movesmart/service-route/internal/platform/auth"
	"github.com/movesmart/service-route/internal/platform/domain"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// User is a registered account. Usernames are unique.
type User struct {
	id           uint
	username     string
	passwordHash string
	role         auth.Role
	createdAt    time.Time
}

// NewUser creates a user with the default role.
func NewUser(username, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, domain.NewValidationError(fmt.Sprintf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength))
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return nil, domain.NewValidationError("username must not contain whitespace")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password hash is required")
	}
	return &User{
		username:     username,
		passwordHash: passwordHash,
		role:         auth.RoleUser,
		createdAt:    time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(id uint, username, passwordHash string, role auth.Role, createdAt time.Time) *User {
	return &User{
		id:           id,
		username:     username,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    createdAt,
	}
}

// ID returns the store-assigned identifier.
func (u *User) ID() uint { return u.id }

// Username returns the unique login name.
func (u *User) Username() string { return u.username }

// PasswordHash returns the bcrypt hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Role returns the authorization role.
func (u *User) Role() auth.Role { return u.role }

// CreatedAt returns the registration timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.role == auth.RoleAdmin }

// AssignID records the identifier chosen by the store.
func (u *User) AssignID(id uint) { u.id = id }

// PromoteToAdmin grants the admin role.
func (u *User) PromoteToAdmin() { u.role = auth.RoleAdmin }
