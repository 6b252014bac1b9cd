package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/service"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

const attachmentField = "attachment"

// ActivityHandler serves the engineering activity pages.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the activity handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity routes. Deletion additionally requires the admin role.
func (h *ActivityHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/new", h.newForm)
	router.Post("/new", h.create)
	router.Get("/:id", h.show)
	router.Get("/:id/edit", h.editForm)
	router.Post("/:id/edit", h.update)
	if adminOnly != nil {
		router.Post("/:id/delete", adminOnly, h.delete)
		return
	}
	router.Post("/:id/delete", h.delete)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	board, err := h.service.Board(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, fiber.StatusOK, "activities", fiber.Map{"Title": "Engineering activities", "Board": board})
}

func (h *ActivityHandler) newForm(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, formPage{
		title:  "New engineering activity",
		action: "/activities/new",
		cancel: "/activities",
		form:   dto.ActivityUpdateRequest{Priority: stringPtr(models.PriorityLow)},
	})
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var req dto.ActivityCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission.")
	}

	upload, closeUpload, err := formUpload(c, attachmentField)
	if err != nil {
		return h.fail(c, err)
	}
	defer closeUpload()

	result, err := h.service.Create(c.UserContext(), actorFromContext(c), req, upload)
	if err != nil {
		if isValidationError(err) {
			middleware.AddFlash(c, middleware.FlashDanger, validationMessage(err))
			return h.renderForm(c, fiber.StatusBadRequest, formPage{
				title:  "New engineering activity",
				action: "/activities/new",
				cancel: "/activities",
				form:   createFormValues(req),
			})
		}
		return h.fail(c, err)
	}

	middleware.AddFlash(c, middleware.FlashSuccess, "Activity created successfully!")
	if result.AttachmentIgnored {
		middleware.AddFlash(c, middleware.FlashWarning, "The attachment was ignored because its file type is not allowed.")
	}
	return c.Redirect("/activities", fiber.StatusFound)
}

func (h *ActivityHandler) show(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	activity, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return render(c, fiber.StatusOK, "activity_detail", fiber.Map{"Title": activity.Name, "Activity": activity})
}

func (h *ActivityHandler) editForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	activity, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.renderForm(c, fiber.StatusOK, editPage(activity, currentFormValues(activity)))
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	req := dto.ActivityUpdateRequest{
		Name:             formField(c, "name"),
		Priority:         formField(c, "priority"),
		CostCenter:       formField(c, "cost_center"),
		Status:           formField(c, "status"),
		Notes:            formField(c, "notes"),
		OrderRef:         formField(c, "order_ref"),
		DeliveryLocation: formField(c, "delivery_location"),
		Requester:        formField(c, "requester"),
		Destination:      formField(c, "destination"),
	}

	upload, closeUpload, err := formUpload(c, attachmentField)
	if err != nil {
		return h.fail(c, err)
	}
	defer closeUpload()

	result, err := h.service.Update(c.UserContext(), actorFromContext(c), id, req, upload)
	if err != nil {
		if isValidationError(err) {
			activity, getErr := h.service.Get(c.UserContext(), id)
			if getErr != nil {
				return h.fail(c, getErr)
			}
			middleware.AddFlash(c, middleware.FlashDanger, validationMessage(err))
			return h.renderForm(c, fiber.StatusBadRequest, editPage(activity, req))
		}
		return h.fail(c, err)
	}

	if result.AttachmentIgnored {
		middleware.AddFlash(c, middleware.FlashWarning, "The attachment was ignored because its file type is not allowed.")
	}
	if result.NoChanges() {
		middleware.AddFlash(c, middleware.FlashInfo, "No changes were made.")
	} else {
		middleware.AddFlash(c, middleware.FlashSuccess, "Activity updated successfully!")
	}
	return c.Redirect(fmt.Sprintf("/activities/%d", id), fiber.StatusFound)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return h.fail(c, err)
	}

	middleware.AddFlash(c, middleware.FlashSuccess, fmt.Sprintf("Activity #%d was deleted successfully.", id))
	return c.Redirect("/activities", fiber.StatusFound)
}

func (h *ActivityHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Activity not found.")
	case errors.Is(err, service.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, filestore.ErrTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, attachmentTooLarge)
	default:
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Str("path", c.Path()).Msg("activity request failed")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}
}

type formPage struct {
	title      string
	action     string
	cancel     string
	editing    bool
	attachment string
	form       dto.ActivityUpdateRequest
}

func editPage(activity models.Activity, form dto.ActivityUpdateRequest) formPage {
	page := formPage{
		title:   "Edit engineering activity",
		action:  fmt.Sprintf("/activities/%d/edit", activity.ID),
		cancel:  fmt.Sprintf("/activities/%d", activity.ID),
		editing: true,
		form:    form,
	}
	if activity.Attachment != nil {
		page.attachment = *activity.Attachment
	}
	return page
}

func (h *ActivityHandler) renderForm(c *fiber.Ctx, status int, page formPage) error {
	return render(c, status, "activity_form", fiber.Map{
		"Title":      page.title,
		"Action":     page.action,
		"Cancel":     page.cancel,
		"Editing":    page.editing,
		"Attachment": page.attachment,
		"Priorities": models.Priorities,
		"Form":       page.form,
	})
}

func currentFormValues(a models.Activity) dto.ActivityUpdateRequest {
	return dto.ActivityUpdateRequest{
		Name:             stringPtr(a.Name),
		Priority:         stringPtr(a.Priority),
		CostCenter:       stringPtr(a.CostCenter),
		Status:           stringPtr(a.Status),
		Notes:            a.Notes,
		OrderRef:         a.OrderRef,
		DeliveryLocation: a.DeliveryLocation,
		Requester:        a.Requester,
		Destination:      a.Destination,
	}
}

func createFormValues(req dto.ActivityCreateRequest) dto.ActivityUpdateRequest {
	return dto.ActivityUpdateRequest{
		Name:             stringPtr(req.Name),
		Priority:         stringPtr(req.Priority),
		CostCenter:       stringPtr(req.CostCenter),
		Notes:            stringPtr(req.Notes),
		OrderRef:         stringPtr(req.OrderRef),
		DeliveryLocation: stringPtr(req.DeliveryLocation),
		Requester:        stringPtr(req.Requester),
		Destination:      stringPtr(req.Destination),
	}
}

func stringPtr(value string) *string {
	return &value
}
