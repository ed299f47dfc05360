package token

import (
	"context"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Token type discriminators carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is the single failure every verification problem
// collapses to: bad signature, expiry, wrong type, malformed input.
// The precise cause must not reach the caller.
var ErrInvalidToken = errors.New("invalid or expired token")

// SecretProvider supplies the symmetric signing secret. One secret signs
// and verifies both token types.
type SecretProvider interface {
	Secret(ctx context.Context) ([]byte, error)
}

// Claims are the signed assertions of a session token.
type Claims struct {
	jwtlib.RegisteredClaims
	TokenType string `json:"typ"`
}

// Pair is the access/refresh token pair issued on login and refresh.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Manager issues and verifies HS256-signed session tokens.
type Manager struct {
	secrets    SecretProvider
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time
}

type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(secrets SecretProvider, accessTTL, refreshTTL time.Duration, options ...ManagerOption) *Manager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}

	m := &Manager{
		secrets:    secrets,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Manager) IssueAccess(ctx context.Context, subject string) (string, error) {
	return m.issue(ctx, subject, TypeAccess, m.accessTTL)
}

func (m *Manager) IssueRefresh(ctx context.Context, subject string) (string, error) {
	return m.issue(ctx, subject, TypeRefresh, m.refreshTTL)
}

// IssuePair issues a fresh access and refresh token for the subject.
func (m *Manager) IssuePair(ctx context.Context, subject string) (*Pair, error) {
	accessToken, err := m.IssueAccess(ctx, subject)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.IssueRefresh(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (m *Manager) issue(ctx context.Context, subject, tokenType string, ttl time.Duration) (string, error) {
	secret, err := m.secrets.Secret(ctx)
	if err != nil {
		return "", err
	}

	now := m.nowTime()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyRefresh checks signature and expiry, then requires the refresh
// type discriminator. It returns the token subject.
func (m *Manager) VerifyRefresh(ctx context.Context, rawToken string) (string, error) {
	secret, err := m.secrets.Secret(ctx)
	if err != nil {
		return "", err
	}

	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(rawToken, claims,
		func(*jwtlib.Token) (interface{}, error) { return secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(m.nowTime),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != TypeRefresh || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
