package middleware

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/models"
)

// Locals keys populated for authenticated requests.
const (
	LocalsUserID    = "user_id"
	LocalsUserLogin = "user_login"
	LocalsUserName  = "user_name"
	LocalsUserRole  = "user_role"
)

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

// UserLookup resolves the login stored in the session.
type UserLookup interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
}

// RequireLogin lets the request through only when the session holds a known login.
// Anonymous visitors are redirected to the login page with the original URL in "next".
func RequireLogin(users UserLookup, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "auth").Logger()

	return func(c *fiber.Ctx) error {
		login := SessionLogin(c)
		if login == "" {
			return redirectToLogin(c)
		}

		user, err := users.FindByLogin(c.UserContext(), login)
		if err != nil {
			log.Warn().Err(err).Str("login", login).Str("correlation_id", GetCorrelationID(c)).Msg("session login no longer resolves")
			_ = SignOut(c)
			return redirectToLogin(c)
		}

		c.Locals(LocalsUserID, user.ID)
		c.Locals(LocalsUserLogin, user.Login)
		c.Locals(LocalsUserName, user.DisplayName())
		c.Locals(LocalsUserRole, user.Role())
		return c.Next()
	}
}

// API callers get a 401 instead of a redirect.
func redirectToLogin(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	AddFlash(c, FlashInfo, "Please log in to access this page.")
	target := LoginPath
	if original := c.OriginalURL(); original != "" && original != "/" {
		target += "?next=" + url.QueryEscape(original)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// SafeNext accepts only local absolute paths as post-login redirect targets.
func SafeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}
