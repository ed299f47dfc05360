package users

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// hashCost matches the cost the original user records were written with;
// changing it would make old and new hashes verify at different costs.
const hashCost = 10

type User struct {
	Email            string     `json:"email"` // Unique identifier, case-sensitive as given
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"` // Never serialize
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `json:"failed_login_count"`
	LockUntil        *time.Time `json:"lock_until,omitempty"`
}

// IsLocked reports whether the account is under an active lockout.
// An expired LockUntil does not block authentication.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// bcrypt only reads the first 72 bytes of its input. The stored hashes
// were written by an implementation that truncates silently, so both
// hashing and verification must truncate the same way or longer
// passwords stop working.
const maxPasswordBytes = 72

func truncateForBcrypt(password string) []byte {
	bytes := []byte(password)
	if len(bytes) > maxPasswordBytes {
		bytes = bytes[:maxPasswordBytes]
	}
	return bytes
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(truncateForBcrypt(password), hashCost)
	return string(bytes), err
}

// VerifyPassword compares a candidate password against a stored hash.
// A mismatch is (false, nil); an error is only returned for a malformed
// stored hash, which callers treat as an internal failure.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncateForBcrypt(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
