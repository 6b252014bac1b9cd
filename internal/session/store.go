package session

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/noah-isme/engtrack/internal/config"
)

// NewStore builds the cookie-backed session store. A nil storage keeps sessions in process memory.
func NewStore(cfg config.Config, storage fiber.Storage) *fibersession.Store {
	return fibersession.New(fibersession.Config{
		Expiration:     cfg.SessionTTL,
		Storage:        storage,
		KeyLookup:      "cookie:" + cfg.SessionCookie,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.IsProduction(),
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
}
