package policy

import "context"

// Result is the password checker's verdict. Reasons hold machine-readable
// codes and are only meaningful when OK is false.
type Result struct {
	OK      bool     `json:"ok"`
	Reasons []string `json:"reasons"`
}

// Checker evaluates candidate passwords against the strength policy.
// An error means the check could not be performed at all; it must never be
// interpreted as a pass or a fail.
type Checker interface {
	Check(ctx context.Context, password string) (*Result, error)
}

var reasonMessages = map[string]string{
	"too_short":      "Password must be at least 8 characters long",
	"no_uppercase":   "Password must contain at least one uppercase letter",
	"no_lowercase":   "Password must contain at least one lowercase letter",
	"no_number":      "Password must contain at least one number",
	"no_symbol":      "Password must contain at least one special character",
	"pwned_password": "This password has been found in data breaches and is not secure",
}

// ReasonMessages translates reason codes to user-facing sentences, passing
// unmapped codes through as-is.
func ReasonMessages(codes []string) []string {
	messages := make([]string, 0, len(codes))
	for _, code := range codes {
		if message, ok := reasonMessages[code]; ok {
			messages = append(messages, message)
			continue
		}
		messages = append(messages, code)
	}
	return messages
}
