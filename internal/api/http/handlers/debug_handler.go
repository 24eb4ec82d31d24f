package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/auth"
)

// DebugHandler serves introspection endpoints for integration testing.
type DebugHandler struct {
	tokens *auth.TokenManager
}

// NewDebugHandler returns a new handler instance.
func NewDebugHandler(tokens *auth.TokenManager) *DebugHandler {
	return &DebugHandler{tokens: tokens}
}

// Headers handles GET /api/debug/headers, echoing request headers back.
func (h *DebugHandler) Headers(c *fiber.Ctx) error {
	headers := map[string]string{}
	for key, values := range c.GetReqHeaders() {
		headers[key] = strings.Join(values, ", ")
	}
	return c.JSON(headers)
}

// Whoami handles GET /api/debug/whoami. It decodes the bearer subject without
// running the full gate, so the token service can be exercised in isolation.
func (h *DebugHandler) Whoami(c *fiber.Ctx) error {
	subject := ""
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		if sub, err := h.tokens.ExtractUsername(strings.TrimSpace(authHeader[len("Bearer "):])); err == nil {
			subject = sub
		}
	}
	return c.JSON(fiber.Map{"subject": subject})
}
