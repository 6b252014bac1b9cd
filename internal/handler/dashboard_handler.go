package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/service"
)

const dashboardItems = 5

// DashboardHandler serves the landing page.
type DashboardHandler struct {
	activities service.ActivityService
	orders     service.ProductionOrderService
	logger     zerolog.Logger
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(activities service.ActivityService, orders service.ProductionOrderService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		activities: activities,
		orders:     orders,
		logger:     logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires the dashboard route.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/", h.index)
}

func (h *DashboardHandler) index(c *fiber.Ctx) error {
	activities, err := h.activities.Recent(c.UserContext(), dashboardItems)
	if err != nil {
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Msg("failed to load recent activities")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}
	orders, err := h.orders.Recent(c.UserContext(), dashboardItems)
	if err != nil {
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Msg("failed to load recent orders")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	return render(c, fiber.StatusOK, "index", fiber.Map{
		"Title":      "Dashboard",
		"Activities": activities,
		"Orders":     orders,
	})
}
