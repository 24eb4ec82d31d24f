package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords. Keeping the error identical is deliberate: callers must not be
// able to tell which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTooManyAttempts signals the login limiter tripped before credentials
// were checked.
var ErrTooManyAttempts = errors.New("too many login attempts")

// ErrUsernameTaken and ErrEmailTaken report signup conflicts.
var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrEmailTaken    = errors.New("email already registered")
)

// AuthService coordinates signup and login flows. Login is stateless: success
// mints a token and records nothing.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	limiter    LoginLimiter
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, limiter LoginLimiter) *AuthService {
	if limiter == nil {
		limiter = noopLimiter{}
	}
	return &AuthService{
		users:      users,
		tokens:     auth.NewTokenManager(cfg.SigningKey, cfg.TokenTTL()),
		limiter:    limiter,
		bcryptCost: cfg.BcryptCost,
	}
}

// Login verifies the username/password pair and mints a token embedding the
// account's current role set.
func (s *AuthService) Login(ctx context.Context, username, password, clientAddr string) (string, time.Time, error) {
	if !s.limiter.Allow(ctx, username+":"+clientAddr) {
		return "", time.Time{}, ErrTooManyAttempts
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return s.tokens.Generate(user.Username, user.Roles())
}

// Signup creates a new account and logs it in.
func (s *AuthService) Signup(ctx context.Context, username, email, password string, userType domain.UserType) (*domain.User, string, time.Time, error) {
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return nil, "", time.Time{}, err
	} else if taken {
		return nil, "", time.Time{}, ErrUsernameTaken
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, "", time.Time{}, err
	} else if taken {
		return nil, "", time.Time{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		UserType:     userType,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokens.Generate(user.Username, user.Roles())
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
