package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Complaints     *handlers.ComplaintsHandler
	Inbox          *handlers.InboxHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	complaints := api.Group("/complaints")
	complaints.Post("", auth.RequireRole(domain.RoleStudent, domain.RoleFaculty), cfg.Complaints.CreateComplaint)
	complaints.Get("/:id", cfg.Complaints.GetComplaint)
	complaints.Patch("/:id/action", cfg.Complaints.ApplyAction)

	api.Get("/inbox/:view", cfg.Inbox.View)
}
