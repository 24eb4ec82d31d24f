package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/service"
)

// AuthHandler exposes login and signup endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login. Unknown usernames and wrong passwords
// produce the identical response.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		if errors.Is(err, service.ErrTooManyAttempts) {
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts")
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	return c.JSON(dto.AuthResponse{Token: token, ExpiresAt: exp})
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username, email, password required")
	}

	userType := domain.UserType(req.UserType)
	switch userType {
	case domain.UserTypeBusiness, domain.UserTypeRetailer:
	case "":
		userType = domain.UserTypeRetailer
	default:
		return fiber.NewError(http.StatusBadRequest, "unknown user_type")
	}

	user, token, exp, err := h.auth.Signup(c.UserContext(), req.Username, req.Email, req.Password, userType)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) || errors.Is(err, service.ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}
