package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/engtrack/internal/config"
	"github.com/noah-isme/engtrack/internal/handler"
	"github.com/noah-isme/engtrack/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler            *handler.AuthHandler
	DashboardHandler       *handler.DashboardHandler
	ActivityHandler        *handler.ActivityHandler
	ProductionOrderHandler *handler.ProductionOrderHandler
	AttachmentHandler      *handler.AttachmentHandler
	HistoryFeedHandler     *handler.HistoryFeedHandler
	Health                 fiber.Handler
	Sessions               fiber.Handler
	RequireLogin           fiber.Handler
	LoginLimiter           fiber.Handler
	AdminOnly              fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Machine endpoints first so they never touch the session store.
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	if deps.Health != nil {
		api.Get("/health", deps.Health)
	}
	app.Get("/metrics", observability.MetricsHandler())

	web := app.Group("", passthrough(deps.Sessions))
	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(web, deps.LoginLimiter)
	}

	// Everything below requires a signed-in user.
	protected := web.Group("", passthrough(deps.RequireLogin))
	adminOnly := passthrough(deps.AdminOnly)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProtected(protected)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(protected)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected.Group("/activities"), adminOnly)
	}
	if deps.ProductionOrderHandler != nil {
		deps.ProductionOrderHandler.Register(protected.Group("/orders"))
	}
	if deps.AttachmentHandler != nil {
		deps.AttachmentHandler.Register(protected.Group("/uploads"))
	}
	if deps.HistoryFeedHandler != nil {
		deps.HistoryFeedHandler.Register(protected.Group("/api/v1/history"))
	}
}

func passthrough(handler fiber.Handler) fiber.Handler {
	if handler != nil {
		return handler
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}
