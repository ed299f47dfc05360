package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals an active lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrInvalidRefreshToken covers every refresh-token verification failure.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrPasswordCheckUnavailable means the policy checker could not be
	// reached or answered garbage; registration fails without a verdict.
	ErrPasswordCheckUnavailable = errors.New("password check unavailable")
)

// ValidationError carries every violated-field message, not just the first.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Issues, ", "))
}

// WeakPasswordError carries the policy checker's rejection reasons, already
// translated to user-facing sentences.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password does not meet security requirements: %s", strings.Join(e.Reasons, ", "))
}
