package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/service"
)

const (
	genericFailure     = "Something went wrong. Please try again."
	attachmentTooLarge = "The attachment exceeds the maximum allowed size."
)

// viewUser is the signed-in user as seen by the templates.
type viewUser struct {
	Login   string
	Name    string
	IsAdmin bool
}

func currentViewUser(c *fiber.Ctx) *viewUser {
	login, _ := c.Locals(middleware.LocalsUserLogin).(string)
	if login == "" {
		return nil
	}
	name, _ := c.Locals(middleware.LocalsUserName).(string)
	role, _ := c.Locals(middleware.LocalsUserRole).(string)
	return &viewUser{Login: login, Name: name, IsAdmin: role == models.RoleAdmin}
}

// render adds the user and the pending flash messages to the page data.
func render(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if user := currentViewUser(c); user != nil {
		data["User"] = user
	}
	data["Flashes"] = middleware.PopFlashes(c)
	return c.Status(status).Render(page, data)
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalsUserID).(uint); ok {
		actor.ID = id
	}
	actor.Login, _ = c.Locals(middleware.LocalsUserLogin).(string)
	actor.Name, _ = c.Locals(middleware.LocalsUserName).(string)
	actor.Role, _ = c.Locals(middleware.LocalsUserRole).(string)
	return actor
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || value == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Page not found.")
	}
	return uint(value), nil
}

// formField returns nil when the field was not submitted at all.
func formField(c *fiber.Ctx, key string) *string {
	if form, err := c.MultipartForm(); err == nil && form != nil {
		values, ok := form.Value[key]
		if !ok || len(values) == 0 {
			return nil
		}
		value := values[0]
		return &value
	}

	args := c.Request().PostArgs()
	if !args.Has(key) {
		return nil
	}
	value := string(args.Peek(key))
	return &value
}

// formUpload opens the named file field. The returned closer is always safe to call.
func formUpload(c *fiber.Ctx, field string) (*service.Upload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(field)
	if err != nil || header == nil || strings.TrimSpace(header.Filename) == "" {
		return nil, noop, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}
	return &service.Upload{Filename: header.Filename, Size: header.Size, Body: file}, func() { _ = file.Close() }, nil
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// validationMessage turns validator output into one readable sentence.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Please check the submitted values."
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldErr.Field())
	}
	return "Please check the following fields: " + strings.Join(fields, ", ") + "."
}
