package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SigningKey:      []byte("0123456789abcdef0123456789abcdef"),
		TokenTTLSeconds: 3600,
		BcryptCost:      4, // minimum cost keeps tests fast
	}
}

func newTestService(t *testing.T) (*AuthService, *repository.InMemoryUserRepository) {
	t.Helper()
	users := repository.NewInMemoryUserRepository()
	return NewAuthService(testAuthConfig(), users, nil), users
}

func seedAlice(t *testing.T, users repository.UserRepository) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret", 4)
	require.NoError(t, err)
	err = users.Create(context.Background(), &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		UserType:     domain.UserTypeBusiness,
		Status:       domain.UserStatusActive,
	})
	require.NoError(t, err)
}

func TestLoginMintsTokenWithCurrentRoles(t *testing.T) {
	svc, users := newTestService(t)
	seedAlice(t, users)

	token, exp, err := svc.Login(context.Background(), "alice", "s3cret", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.TokenManager().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"BUSINESS"}, claims.Roles)
	assert.True(t, svc.TokenManager().IsValid(token, "alice"))
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, users := newTestService(t)
	seedAlice(t, users)

	// Wrong password for an existing user and an unknown user must be
	// indistinguishable to the caller.
	_, _, wrongPass := svc.Login(context.Background(), "alice", "wrong", "127.0.0.1")
	_, _, noUser := svc.Login(context.Background(), "mallory", "whatever", "127.0.0.1")

	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), noUser.Error())
}

func TestSignupCreatesAccountAndLogsIn(t *testing.T) {
	svc, users := newTestService(t)

	user, token, _, err := svc.Signup(context.Background(), "bob", "bob@example.com", "hunter2", domain.UserTypeRetailer)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.True(t, svc.TokenManager().IsValid(token, "bob"))

	stored, err := users.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "hunter2"))
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	svc, users := newTestService(t)
	seedAlice(t, users)

	_, _, _, err := svc.Signup(context.Background(), "alice", "other@example.com", "pw", domain.UserTypeRetailer)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, _, _, err = svc.Signup(context.Background(), "alice2", "alice@example.com", "pw", domain.UserTypeRetailer)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

type deniedLimiter struct{}

func (deniedLimiter) Allow(context.Context, string) bool { return false }

func TestLoginHonorsRateLimiter(t *testing.T) {
	users := repository.NewInMemoryUserRepository()
	svc := NewAuthService(testAuthConfig(), users, deniedLimiter{})
	seedAlice(t, users)

	_, _, err := svc.Login(context.Background(), "alice", "s3cret", "127.0.0.1")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}
