package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/authcore/auth-service/internal/utils"
	"github.com/authcore/auth-service/policy"
	"github.com/authcore/auth-service/token"
	"github.com/authcore/auth-service/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users users.Repo // Repository for user records and login-attempt metadata
}

// Service wires validation, the password policy checker, credential
// hashing, the user store and the token manager into the register, login
// and refresh workflows. Outward it only distinguishes validation,
// credential-invalid and rate-limited outcomes; the precise reason stays in
// the server-side log.
type Service struct {
	repos          Repos
	tokens         *token.Manager
	passwordPolicy policy.Checker
	nowTime        func() time.Time // nowTime function (injectable for testing)
	log            zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for the internal audit trail.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService initializes a new Service with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(repos Repos, tokens *token.Manager, passwordPolicy policy.Checker, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if passwordPolicy == nil {
		return nil, errors.New("[NewService] password policy checker is required")
	}

	service := &Service{
		repos:          repos,
		tokens:         tokens,
		passwordPolicy: passwordPolicy,
		nowTime:        time.Now,
		log:            zerolog.Nop(),
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register validates the payload, runs the password policy check, hashes
// the credential and creates the user. The existence pre-check only saves a
// round-trip in the common case; the store's conditional insert is what
// actually guards against a concurrent registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	data, err := ParseRegister(in)
	if err != nil {
		return err
	}
	log := s.logger(ctx)

	existing, err := s.repos.Users.Get(ctx, data.Email)
	if err != nil {
		return errors.Wrap(err, "[Register] user lookup")
	}
	if existing != nil {
		log.Warn().Str("email", data.Email).Msg("registration_conflict")
		return users.ErrUserExists
	}

	verdict, err := s.passwordPolicy.Check(ctx, data.Password)
	if err != nil {
		log.Error().Err(err).Msg("password_check_failed")
		return ErrPasswordCheckUnavailable
	}
	if !verdict.OK {
		log.Warn().Str("email", data.Email).Strs("reasons", verdict.Reasons).Msg("password_weak")
		return &WeakPasswordError{Reasons: policy.ReasonMessages(verdict.Reasons)}
	}

	passwordHash, err := users.HashPassword(data.Password)
	if err != nil {
		return errors.Wrap(err, "[Register] hash password")
	}

	now := s.nowTime().UTC()
	err = s.repos.Users.Create(ctx, &users.User{
		Email:        data.Email,
		Name:         data.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			// Lost the race despite the pre-check
			log.Warn().Str("email", data.Email).Msg("registration_conflict")
			return users.ErrUserExists
		}
		return errors.Wrap(err, "[Register] create user")
	}

	log.Info().Str("email", data.Email).Msg("user_registered")
	return nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password produce the same ErrInvalidCredentials; an active lockout
// rejects before the password is checked and without touching the counter.
func (s *Service) Login(ctx context.Context, in LoginInput) (*token.Pair, error) {
	data, err := ParseLogin(in)
	if err != nil {
		return nil, err
	}
	log := s.logger(ctx)

	user, err := s.repos.Users.Get(ctx, data.Email)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] user lookup")
	}
	if user == nil {
		log.Warn().Str("email", data.Email).Str("reason", "not_found").Msg("login_failed")
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked(s.nowTime()) {
		log.Warn().Str("email", user.Email).Time("lock_until", utils.Value(user.LockUntil)).Msg("login_locked")
		return nil, ErrAccountLocked
	}

	ok, err := users.VerifyPassword(data.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] verify password")
	}
	if !ok {
		if _, err := s.repos.Users.RecordFailedAttempt(ctx, user.Email, user.FailedLoginCount); err != nil {
			return nil, errors.Wrap(err, "[Login] record failed attempt")
		}
		log.Warn().Str("email", user.Email).Str("reason", "bad_password").Msg("login_failed")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] issue tokens")
	}

	now := s.nowTime().UTC()
	err = s.repos.Users.UpdateLoginMeta(ctx, user.Email, users.LoginMeta{
		LastLoginAt:      &now,
		FailedLoginCount: utils.Ptr(0),
		ClearLock:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Login] update login meta")
	}

	log.Info().Str("email", user.Email).Msg("login_success")
	return pair, nil
}

// Refresh verifies a refresh-typed token and issues a new pair. There is no
// store interaction and no revocation: the same refresh token keeps working
// until it expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, &ValidationError{Issues: []string{"refreshToken is required"}}
	}
	log := s.logger(ctx)

	subject, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			log.Warn().Err(err).Msg("refresh_failed")
			return nil, ErrInvalidRefreshToken
		}
		return nil, errors.Wrap(err, "[Refresh] verify refresh token")
	}

	pair, err := s.tokens.IssuePair(ctx, subject)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] issue tokens")
	}

	log.Info().Str("sub", subject).Msg("token_refreshed")
	return pair, nil
}

// logger prefers a request-scoped logger from the context so events carry
// the request id attached at the HTTP boundary.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
