package auth

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

const identityKey = "auth_identity"

const bearerPrefix = "Bearer "

// Gate is the request-authentication middleware. It runs first in the
// pipeline, before any credential-checking handler. It only ever decides
// whether an identity is attached; rejecting unauthenticated requests is the
// job of the downstream policy handlers in roles.go.
type Gate struct {
	tokens *TokenManager
	users  repository.UserRepository
	exempt *ExemptionSet
	logger *zap.Logger
}

// NewGate constructs the middleware.
func NewGate(tokens *TokenManager, users repository.UserRepository, exempt *ExemptionSet, logger *zap.Logger) *Gate {
	if exempt == nil {
		exempt = DefaultExemptionSet()
	}
	return &Gate{tokens: tokens, users: users, exempt: exempt, logger: logger}
}

// Handle authenticates the request when possible and always lets it proceed.
// Every failure mode inside the gate degrades to "no identity attached";
// nothing here may turn into a 401 or a 5xx.
func (g *Gate) Handle(c *fiber.Ctx) error {
	path := c.Path()

	// Exemption runs before any token parsing so garbage headers on public
	// paths never cause errors.
	if g.exempt.Matches(path) {
		return c.Next()
	}

	// Do not overwrite an identity attached upstream.
	if _, ok := IdentityFromContext(c); ok {
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return c.Next()
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])

	sub, err := g.tokens.ExtractUsername(token)
	if err != nil {
		g.logger.Debug("bearer token rejected", zap.String("path", path))
		return c.Next()
	}

	// The subject is trusted from the signature, but roles are re-resolved on
	// every request so role changes and account deletion take effect without
	// waiting for token expiry.
	user, err := g.users.GetByUsername(c.UserContext(), sub)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			g.logger.Warn("identity lookup failed",
				zap.String("path", path),
				zap.String("error", truncate(err.Error(), 200)))
		}
		return c.Next()
	}

	if !g.tokens.IsValid(token, user.Username) {
		g.logger.Debug("token failed freshness check", zap.String("path", path))
		return c.Next()
	}

	c.Locals(identityKey, &domain.Identity{
		Username: user.Username,
		Roles:    user.Roles(),
	})
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

// AttachIdentity places an identity on the request context. Exposed for the
// gate's own use and for tests exercising downstream policy handlers.
func AttachIdentity(c *fiber.Ctx, identity *domain.Identity) {
	c.Locals(identityKey, identity)
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
