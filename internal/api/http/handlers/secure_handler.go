package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/auth"
)

// SecureHandler serves endpoints behind the authentication policy.
type SecureHandler struct{}

// NewSecureHandler returns a new handler instance.
func NewSecureHandler() *SecureHandler {
	return &SecureHandler{}
}

// Hello handles GET /api/secure/hello.
func (h *SecureHandler) Hello(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Hello %s (secured)", identity.Username),
	})
}

// Me handles GET /api/secure/me, returning the caller's identity with roles
// from the fresh lookup the gate performed.
func (h *SecureHandler) Me(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	return c.JSON(fiber.Map{
		"username": identity.Username,
		"roles":    identity.Roles,
	})
}
