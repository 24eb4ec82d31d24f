package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Auth   *handlers.AuthHandler
	Hello  *handlers.HelloHandler
	Secure *handlers.SecureHandler
	Debug  *handlers.DebugHandler
	Health *handlers.HealthHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. The gate is installed with app.Use so it
// runs ahead of every route; per-route policy handlers make the terminal
// allow/deny decision.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/actuator/health", cfg.Health.Health)
	app.Get("/actuator/info", cfg.Health.Info)

	api := app.Group("/api")
	api.Get("/hello", cfg.Hello.Hello)

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/signup", cfg.Auth.Signup)

	secure := api.Group("/secure", auth.RequireAuthenticated())
	secure.Get("/hello", cfg.Secure.Hello)
	secure.Get("/me", cfg.Secure.Me)

	debug := api.Group("/debug", auth.RequireAuthenticated())
	debug.Get("/headers", cfg.Debug.Headers)
	debug.Get("/whoami", cfg.Debug.Whoami)
}
