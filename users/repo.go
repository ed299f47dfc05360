package users

import (
	"context"
	"errors"
	"time"
)

// ErrUserExists is returned by Repo.Create when the email is already taken.
var ErrUserExists = errors.New("user already exists")

// LoginMeta is a partial update of a user's login bookkeeping. Nil fields
// are left untouched; ClearLock removes the lock expiry outright.
type LoginMeta struct {
	LastLoginAt      *time.Time
	FailedLoginCount *int
	LockUntil        *time.Time
	ClearLock        bool
}

// Repo persists user records. Create must be a conditional insert that is
// atomic at the store level, and RecordFailedAttempt must apply the counter
// and lock expiry in a single write.
type Repo interface {
	// Get returns (nil, nil) when no user exists for the email; absence
	// is a normal outcome, not an error.
	Get(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateLoginMeta(ctx context.Context, email string, meta LoginMeta) error
	// RecordFailedAttempt increments the failed-login counter from
	// currentCount and sets or clears the lock expiry per NextLockout,
	// returning the new count.
	RecordFailedAttempt(ctx context.Context, email string, currentCount int) (int, error)
}
