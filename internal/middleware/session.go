package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog"
)

const (
	sessionLocalsKey = "session"
	sessionLoginKey  = "login"
	sessionFlashKey  = "flashes"
)

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot status message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Sessions loads the request session before the handlers run and persists it afterwards.
func Sessions(store *session.Store, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "session").Logger()

	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to load session")
			return fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
		}
		c.Locals(sessionLocalsKey, sess)

		handlerErr := c.Next()

		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to save session")
			if handlerErr == nil {
				handlerErr = fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
			}
		}
		return handlerErr
	}
}

// CurrentSession returns the session bound by Sessions, or nil outside it.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocalsKey).(*session.Session)
	return sess
}

// SignIn binds the login to a fresh session id.
func SignIn(c *fiber.Ctx, login string) error {
	sess := CurrentSession(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionLoginKey, login)
	return nil
}

// SignOut forgets the login but keeps the session so a flash can survive the redirect.
func SignOut(c *fiber.Ctx) error {
	sess := CurrentSession(c)
	if sess == nil {
		return nil
	}
	sess.Delete(sessionLoginKey)
	return sess.Regenerate()
}

// SessionLogin returns the signed-in login, if any.
func SessionLogin(c *fiber.Ctx) string {
	sess := CurrentSession(c)
	if sess == nil {
		return ""
	}
	login, _ := sess.Get(sessionLoginKey).(string)
	return login
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *fiber.Ctx, category, message string) {
	sess := CurrentSession(c)
	if sess == nil {
		return
	}
	flashes := readFlashes(sess)
	flashes = append(flashes, Flash{Category: category, Message: message})
	if encoded, err := json.Marshal(flashes); err == nil {
		sess.Set(sessionFlashKey, string(encoded))
	}
}

// PopFlashes returns and clears the queued messages.
func PopFlashes(c *fiber.Ctx) []Flash {
	sess := CurrentSession(c)
	if sess == nil {
		return nil
	}
	flashes := readFlashes(sess)
	if len(flashes) > 0 {
		sess.Delete(sessionFlashKey)
	}
	return flashes
}

func readFlashes(sess *session.Session) []Flash {
	raw, _ := sess.Get(sessionFlashKey).(string)
	if raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}
