package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/utils"
)

// ErrorHandler renders failures as the error page, or as JSON under /api.
// It runs after the session was saved and therefore never reads or writes flashes.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	log := logger.With().Str("component", "error_handler").Logger()

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := genericFailure

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		} else {
			reqLogger := middleware.RequestLogger(log, c)
			reqLogger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return utils.SendError(c, status, message)
		}

		data := fiber.Map{"Title": message, "Status": status, "Message": message}
		if user := currentViewUser(c); user != nil {
			data["User"] = user
		}
		if renderErr := c.Status(status).Render("error", data); renderErr != nil {
			log.Error().Err(renderErr).Msg("failed to render error page")
			return c.Status(status).SendString(message)
		}
		return nil
	}
}
