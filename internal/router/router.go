package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assignments-api/internal/config"
	"github.com/noah-isme/gema-assignments-api/internal/handler"
	"github.com/noah-isme/gema-assignments-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HealthHandler     *handler.HealthHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	AuthMiddleware    fiber.Handler
	SubmissionLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.HealthHandler != nil {
		deps.HealthHandler.Register(app)
	}
	app.Get("/metrics", observability.MetricsHandler())

	authMiddleware := deps.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	v1 := app.Group("/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	assignments := v1.Group("/assignments")

	// Submission routes go first so /:id/submission is never shadowed by the /:id fallbacks.
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(assignments, authMiddleware, deps.SubmissionLimiter)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments, authMiddleware)
	}
}
