package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordLength = 128
	maxNameLength     = 100
)

// RegisterInput is the raw registration payload before validation.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput is the raw login payload before validation.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is a validated registration record.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// LoginRequest is a validated login record.
type LoginRequest struct {
	Email    string
	Password string
}

// ParseRegister validates a registration payload, collecting every violated
// field into one ValidationError. The email is kept case-sensitive as given.
func ParseRegister(in RegisterInput) (*RegisterRequest, error) {
	var issues []string

	issues = appendEmailIssues(issues, in.Email)
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		issues = append(issues, "Password must be at least 8 characters long")
	}
	if utf8.RuneCountInString(in.Password) > maxPasswordLength {
		issues = append(issues, "Password is too long")
	}
	if strings.TrimSpace(in.Name) == "" {
		issues = append(issues, "Name is required")
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		issues = append(issues, "Name is too long")
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &RegisterRequest{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	}, nil
}

// ParseLogin validates a login payload, collecting all issues.
func ParseLogin(in LoginInput) (*LoginRequest, error) {
	var issues []string

	issues = appendEmailIssues(issues, in.Email)
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		issues = append(issues, "Password must be at least 8 characters long")
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &LoginRequest{
		Email:    in.Email,
		Password: in.Password,
	}, nil
}

func appendEmailIssues(issues []string, email string) []string {
	if !validEmailAddress(email) {
		issues = append(issues, "Please provide a valid email address")
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		issues = append(issues, "Email address is too long")
	}
	return issues
}

// validEmailAddress requires a bare address: display names and surrounding
// whitespace that net/mail would tolerate are rejected, as are dotless
// domains like "a@b", which net/mail parses but no public mailbox has.
func validEmailAddress(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(strings.Trim(domain, "."), ".")
}
