package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/service"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

// ProductionOrderHandler serves the production order pages.
type ProductionOrderHandler struct {
	service service.ProductionOrderService
	logger  zerolog.Logger
}

// NewProductionOrderHandler constructs the production order handler.
func NewProductionOrderHandler(service service.ProductionOrderService, logger zerolog.Logger) *ProductionOrderHandler {
	return &ProductionOrderHandler{
		service: service,
		logger:  logger.With().Str("component", "production_order_handler").Logger(),
	}
}

// Register wires production order routes.
func (h *ProductionOrderHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/new", h.newForm)
	router.Post("/new", h.create)
	router.Get("/:id", h.show)
}

func (h *ProductionOrderHandler) list(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, fiber.StatusOK, "orders", fiber.Map{"Title": "Production orders", "Orders": orders})
}

func (h *ProductionOrderHandler) newForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, "order_form", fiber.Map{"Title": "New production order", "Form": dto.ProductionOrderRequest{}})
}

func (h *ProductionOrderHandler) create(c *fiber.Ctx) error {
	var req dto.ProductionOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission.")
	}

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		return h.fail(c, err)
	}
	defer closeImage()
	file, closeFile, err := formUpload(c, "file")
	if err != nil {
		return h.fail(c, err)
	}
	defer closeFile()

	result, err := h.service.Create(c.UserContext(), actorFromContext(c), req, service.ProductionOrderUploads{Image: image, File: file})
	if err != nil {
		if isValidationError(err) || errors.Is(err, service.ErrInvalidOrderDate) {
			message := validationMessage(err)
			if errors.Is(err, service.ErrInvalidOrderDate) {
				message = "Dates must use the YYYY-MM-DD format."
			}
			middleware.AddFlash(c, middleware.FlashDanger, message)
			return render(c, fiber.StatusBadRequest, "order_form", fiber.Map{"Title": "New production order", "Form": req})
		}
		return h.fail(c, err)
	}

	middleware.AddFlash(c, middleware.FlashSuccess, "Production order created successfully!")
	if len(result.IgnoredUploads) > 0 {
		middleware.AddFlash(c, middleware.FlashWarning, fmt.Sprintf("Ignored files with a type that is not allowed: %s.", strings.Join(result.IgnoredUploads, ", ")))
	}
	return c.Redirect("/orders", fiber.StatusFound)
}

func (h *ProductionOrderHandler) show(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, fiber.StatusOK, "order_detail", fiber.Map{"Title": order.Name, "Order": order})
}

func (h *ProductionOrderHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Production order not found.")
	case errors.Is(err, filestore.ErrTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, attachmentTooLarge)
	}
	reqLogger := middleware.RequestLogger(h.logger, c)
	reqLogger.Error().Err(err).Str("path", c.Path()).Msg("production order request failed")
	return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
}
