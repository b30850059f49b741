package user

import "context"

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Save persists a new user and assigns its ID. A taken username yields a
	// conflict error.
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error
}
