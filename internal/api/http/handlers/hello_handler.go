package handlers

import "github.com/gofiber/fiber/v2"

// HelloHandler serves the public smoke-test endpoint.
type HelloHandler struct{}

// NewHelloHandler returns a new handler instance.
func NewHelloHandler() *HelloHandler {
	return &HelloHandler{}
}

// Hello handles GET /api/hello. The path is exempt from authentication so it
// works with any or no Authorization header.
func (h *HelloHandler) Hello(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "hello"})
}
