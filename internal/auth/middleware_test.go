package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

// failingUserRepository simulates a user store that is down or timing out.
type failingUserRepository struct {
	repository.UserRepository
	err error
}

func (f failingUserRepository) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

type gateFixture struct {
	app    *fiber.App
	tokens *TokenManager
	users  *repository.InMemoryUserRepository
}

// seen records what the downstream handler observed for each request.
type seen struct {
	identity *domain.Identity
	attached bool
}

func newGateFixture(t *testing.T) (*gateFixture, *seen) {
	t.Helper()

	tokens := NewTokenManager(testKey, time.Hour)
	users := repository.NewInMemoryUserRepository()
	gate := NewGate(tokens, users, DefaultExemptionSet(), zap.NewNop())

	last := &seen{}
	app := fiber.New()
	app.Use(gate.Handle)
	record := func(c *fiber.Ctx) error {
		last.identity, last.attached = IdentityFromContext(c)
		return c.SendStatus(http.StatusOK)
	}
	app.Get("/api/hello", record)
	app.Get("/api/secure/me", record)
	app.Get("/api/secure/locked", RequireAuthenticated(), record)
	app.Get("/api/secure/business", RequireRole("BUSINESS"), record)

	return &gateFixture{app: app, tokens: tokens, users: users}, last
}

func (f *gateFixture) seedUser(t *testing.T, username string, userType domain.UserType) {
	t.Helper()
	err := f.users.Create(context.Background(), &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "irrelevant",
		UserType:     userType,
		Status:       domain.UserStatusActive,
	})
	require.NoError(t, err)
}

func doGet(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGateExemptPathIgnoresGarbageHeader(t *testing.T) {
	f, last := newGateFixture(t)

	resp := doGet(t, f.app, "/api/hello", "Bearer total-garbage")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, last.attached)
}

func TestGateMissingHeaderProceedsUnauthenticated(t *testing.T) {
	f, last := newGateFixture(t)

	resp := doGet(t, f.app, "/api/secure/me", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, last.attached)
}

func TestGateInvalidTokenProceedsUnauthenticated(t *testing.T) {
	f, last := newGateFixture(t)
	f.seedUser(t, "alice", domain.UserTypeBusiness)

	resp := doGet(t, f.app, "/api/secure/me", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, last.attached)
}

func TestGateAttachesIdentityWithFreshRoles(t *testing.T) {
	f, last := newGateFixture(t)
	f.seedUser(t, "alice", domain.UserTypeBusiness)

	// Mint the token with a stale role snapshot; the gate must ignore it.
	token, _, err := f.tokens.Generate("alice", []string{"RETAILER"})
	require.NoError(t, err)

	resp := doGet(t, f.app, "/api/secure/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, last.attached)
	assert.Equal(t, "alice", last.identity.Username)
	assert.Equal(t, []string{"BUSINESS"}, last.identity.Roles)
}

func TestGateDeletedUserIsUnauthenticated(t *testing.T) {
	f, last := newGateFixture(t)
	f.seedUser(t, "alice", domain.UserTypeBusiness)

	token, _, err := f.tokens.Generate("alice", []string{"BUSINESS"})
	require.NoError(t, err)

	f.users.Delete("alice")

	resp := doGet(t, f.app, "/api/secure/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, last.attached)
}

func TestGateExpiredTokenIsUnauthenticated(t *testing.T) {
	f, last := newGateFixture(t)
	f.seedUser(t, "alice", domain.UserTypeBusiness)

	token, exp, err := f.tokens.Generate("alice", nil)
	require.NoError(t, err)
	f.tokens.now = func() time.Time { return exp.Add(time.Minute) }

	resp := doGet(t, f.app, "/api/secure/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, last.attached)
}

func TestGateLookupFailureIsUnauthenticated(t *testing.T) {
	tokens := NewTokenManager(testKey, time.Hour)
	storeErr := errors.New("store unavailable: " + strings.Repeat("é", 200))
	users := failingUserRepository{err: storeErr}

	core, logs := observer.New(zapcore.WarnLevel)
	gate := NewGate(tokens, users, DefaultExemptionSet(), zap.New(core))

	var attached bool
	app := fiber.New()
	app.Use(gate.Handle)
	app.Get("/api/secure/me", func(c *fiber.Ctx) error {
		_, attached = IdentityFromContext(c)
		return c.SendStatus(http.StatusOK)
	})

	token, _, err := tokens.Generate("alice", nil)
	require.NoError(t, err)

	// A store failure must degrade to "no identity", not break the pipeline.
	resp := doGet(t, app, "/api/secure/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, attached)

	entries := logs.FilterMessage("identity lookup failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/secure/me", fields["path"])
	logged, ok := fields["error"].(string)
	require.True(t, ok)
	assert.LessOrEqual(t, len(logged), 200)
	assert.True(t, strings.HasPrefix(storeErr.Error(), logged))
	assert.True(t, utf8.ValidString(logged))
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
	assert.Equal(t, "ab", truncate("abcd", 2))

	// Never cut a multi-byte rune in half.
	cut := truncate(strings.Repeat("é", 100), 3)
	assert.Equal(t, "é", cut)
	assert.True(t, len(cut) <= 3)
}

func TestGateDoesNotOverwriteExistingIdentity(t *testing.T) {
	tokens := NewTokenManager(testKey, time.Hour)
	users := repository.NewInMemoryUserRepository()
	gate := NewGate(tokens, users, DefaultExemptionSet(), zap.NewNop())

	upstream := &domain.Identity{Username: "upstream", Roles: []string{"BUSINESS"}}

	var got *domain.Identity
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		AttachIdentity(c, upstream)
		return c.Next()
	})
	app.Use(gate.Handle)
	app.Get("/api/secure/me", func(c *fiber.Ctx) error {
		got, _ = IdentityFromContext(c)
		return c.SendStatus(http.StatusOK)
	})

	// A valid token for a different user must not replace the upstream identity.
	err := users.Create(context.Background(), &domain.User{Username: "alice", UserType: domain.UserTypeRetailer, Status: domain.UserStatusActive})
	require.NoError(t, err)
	token, _, err := tokens.Generate("alice", nil)
	require.NoError(t, err)

	resp := doGet(t, app, "/api/secure/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Same(t, upstream, got)
}

func TestRequireAuthenticatedRejectsWithoutIdentity(t *testing.T) {
	f, _ := newGateFixture(t)

	resp := doGet(t, f.app, "/api/secure/locked", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doGet(t, f.app, "/api/secure/locked", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleEnforcesRoleTags(t *testing.T) {
	f, _ := newGateFixture(t)
	f.seedUser(t, "alice", domain.UserTypeBusiness)
	f.seedUser(t, "bob", domain.UserTypeRetailer)

	aliceToken, _, err := f.tokens.Generate("alice", nil)
	require.NoError(t, err)
	bobToken, _, err := f.tokens.Generate("bob", nil)
	require.NoError(t, err)

	resp := doGet(t, f.app, "/api/secure/business", "Bearer "+aliceToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doGet(t, f.app, "/api/secure/business", "Bearer "+bobToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doGet(t, f.app, "/api/secure/business", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
