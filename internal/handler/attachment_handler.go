package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

// AttachmentOpener reads stored attachments.
type AttachmentOpener interface {
	Open(ctx context.Context, category filestore.Category, name string) (*filestore.Attachment, error)
}

// AttachmentHandler streams stored attachments to signed-in users.
type AttachmentHandler struct {
	files  AttachmentOpener
	logger zerolog.Logger
}

// NewAttachmentHandler constructs the attachment handler.
func NewAttachmentHandler(files AttachmentOpener, logger zerolog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		files:  files,
		logger: logger.With().Str("component", "attachment_handler").Logger(),
	}
}

// Register wires the download route.
func (h *AttachmentHandler) Register(router fiber.Router) {
	router.Get("/:category/:name", h.serve)
}

func (h *AttachmentHandler) serve(c *fiber.Ctx) error {
	category := filestore.Category(c.Params("category"))
	name := c.Params("name")

	attachment, err := h.files.Open(c.UserContext(), category, name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) || errors.Is(err, filestore.ErrUnknownCategory) {
			return fiber.NewError(fiber.StatusNotFound, "Attachment not found.")
		}
		reqLogger := middleware.RequestLogger(h.logger, c)
		reqLogger.Error().Err(err).Str("category", string(category)).Str("name", name).Msg("failed to open attachment")
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	disposition := "attachment"
	if attachment.Inline() {
		disposition = "inline"
	}
	c.Set(fiber.HeaderContentType, attachment.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, attachment.Name))
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderContentSecurityPolicy, "sandbox")
	return c.SendStream(attachment.Body, int(attachment.Size))
}
