package user

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no user record exists.
var ErrNotFound = errors.New("user not found")

// Repository defines persistence operations for the User record.
type Repository interface {
	// Upsert inserts the user or refreshes its fields and last_activity.
	Upsert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByUsername resolves a handle (without the leading @) to a user.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// ListActiveSince returns users whose last activity is at or after cutoff.
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]User, error)
}
