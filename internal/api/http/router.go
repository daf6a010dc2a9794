package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-service/internal/api/http/handlers"
	"github.com/spec-kit/admin-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Each route declares its access policy
// here, and the two gates run in order ahead of the handler: the
// authentication gate first, the authorization gate second.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	guarded := func(method, path string, meta auth.RouteMeta, handler fiber.Handler) {
		app.Add(method, path, cfg.AuthMiddleware.Handle(meta), auth.Require(meta), handler)
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	guarded(fiber.MethodPost, "/auth/register", auth.Public, cfg.Auth.Register)
	guarded(fiber.MethodPost, "/auth/login", auth.Public, cfg.Auth.Login)
	guarded(fiber.MethodPost, "/auth/refresh", auth.Public, cfg.Auth.Refresh)

	guarded(fiber.MethodGet, "/auth/profile", auth.Protected, cfg.Profile.Info)
	guarded(fiber.MethodGet, "/auth/routers", auth.Protected, cfg.Profile.Routers)
}
